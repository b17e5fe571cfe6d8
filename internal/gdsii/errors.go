package gdsii

import "github.com/pkg/errors"

// TruncatedFileError is returned when a record header or payload extends
// beyond the buffer.
type TruncatedFileError struct{ Offset int64 }

func (e *TruncatedFileError) Error() string {
	return "truncated file at byte offset"
}

// OddRecordLengthError is returned on a malformed (odd or too-short) record
// length field.
type OddRecordLengthError struct {
	Offset int64
	Length uint16
}

func (e *OddRecordLengthError) Error() string {
	return "odd or invalid record length"
}

// UnknownDataTypeError is returned for a data-type byte the reader cannot
// decode.
type UnknownDataTypeError struct {
	Offset   int64
	DataType byte
}

func (e *UnknownDataTypeError) Error() string {
	return "unknown record data type"
}

// MissingUnitsError is returned when a BOUNDARY record is read before UNITS.
type MissingUnitsError struct{ Offset int64 }

func (e *MissingUnitsError) Error() string {
	return "boundary encountered before UNITS record"
}

// wrapOffset attaches the byte offset at which a fatal error was detected,
// in the teacher's error-wrapping idiom (see pkg/errors usage pack-wide).
func wrapOffset(err error, offset int64, msg string) error {
	return errors.Wrapf(err, "%s (offset %d)", msg, offset)
}
