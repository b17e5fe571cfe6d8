package gdsii

import (
	"encoding/binary"
	"errors"
	"io"
	"strings"
)

// ErrEOF is returned by RecordReader.Next when the stream is exhausted at a
// record boundary (not mid-record, which is TruncatedFileError instead).
var ErrEOF = io.EOF

// RecordReader decodes a GDSII byte stream into a lazy sequence of Records.
// It is restartable from any record boundary but not from mid-record; it
// does not interpret record meaning, only the wire format of §4.1.
type RecordReader struct {
	data   []byte
	offset int64
}

// NewRecordReader wraps an in-memory buffer. GDSII files are read whole
// (permissible for the target file sizes per §9 Design Notes); a future
// streaming variant would wrap io.Reader with internal buffering instead.
func NewRecordReader(data []byte) *RecordReader {
	return &RecordReader{data: data}
}

// Offset reports the current byte offset, used for progress reporting.
func (r *RecordReader) Offset() int64 { return r.offset }

// Len reports the total stream length, used to compute progress percentage.
func (r *RecordReader) Len() int64 { return int64(len(r.data)) }

// Next decodes and returns the record at the current offset, advancing
// past it. It returns ErrEOF when no more records remain.
func (r *RecordReader) Next() (Record, error) {
	if r.offset >= int64(len(r.data)) {
		return Record{}, ErrEOF
	}
	start := r.offset
	if r.offset+4 > int64(len(r.data)) {
		return Record{}, &TruncatedFileError{Offset: start}
	}
	header := r.data[r.offset : r.offset+4]
	length := binary.BigEndian.Uint16(header[0:2])
	recType := RecordType(header[2])
	dataType := DataType(header[3])

	if length < 4 || length%2 != 0 {
		return Record{}, &OddRecordLengthError{Offset: start, Length: length}
	}
	if start+int64(length) > int64(len(r.data)) {
		return Record{}, &TruncatedFileError{Offset: start}
	}
	payload := r.data[r.offset+4 : start+int64(length)]
	r.offset = start + int64(length)

	rec := Record{Type: recType, DataType: dataType, Offset: start, Length: int(length)}
	switch dataType {
	case DataNone:
		// no payload
	case DataBitArray:
		if len(payload) < 2 {
			return Record{}, &TruncatedFileError{Offset: start}
		}
		rec.BitFlag = binary.BigEndian.Uint16(payload[0:2])
	case DataInt16:
		if len(payload)%2 != 0 {
			return Record{}, &OddRecordLengthError{Offset: start, Length: length}
		}
		for i := 0; i+2 <= len(payload); i += 2 {
			rec.Ints = append(rec.Ints, int32(int16(binary.BigEndian.Uint16(payload[i:i+2]))))
		}
	case DataInt32:
		if len(payload)%4 != 0 {
			return Record{}, &OddRecordLengthError{Offset: start, Length: length}
		}
		for i := 0; i+4 <= len(payload); i += 4 {
			rec.Ints = append(rec.Ints, int32(binary.BigEndian.Uint32(payload[i:i+4])))
		}
	case DataReal64:
		if len(payload)%8 != 0 {
			return Record{}, &OddRecordLengthError{Offset: start, Length: length}
		}
		for i := 0; i+8 <= len(payload); i += 8 {
			rec.Reals = append(rec.Reals, decodeReal64(payload[i:i+8]))
		}
	case DataString:
		s := string(payload)
		s = strings.TrimRight(s, "\x00")
		rec.Str = s
	default:
		return Record{}, &UnknownDataTypeError{Offset: start, DataType: byte(dataType)}
	}
	return rec, nil
}

// SeekToOffset repositions the reader to a prior record boundary, per the
// "restartable from any record boundary" contract in §4.1.
func (r *RecordReader) SeekToOffset(offset int64) error {
	if offset < 0 || offset > int64(len(r.data)) {
		return errors.New("offset out of range")
	}
	r.offset = offset
	return nil
}
