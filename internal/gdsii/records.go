package gdsii

// RecordType identifies the semantic meaning of a GDSII record header byte.
type RecordType byte

// Record types used by the Document Builder's state machine (§4.2). Values
// match the GDSII stream format; not every record type a real file can
// contain is interpreted, but all are recognized by name.
const (
	RecHEADER   RecordType = 0x00
	RecBGNLIB   RecordType = 0x01
	RecLIBNAME  RecordType = 0x02
	RecUNITS    RecordType = 0x03
	RecENDLIB   RecordType = 0x04
	RecBGNSTR   RecordType = 0x05
	RecSTRNAME  RecordType = 0x06
	RecENDSTR   RecordType = 0x07
	RecBOUNDARY RecordType = 0x08
	RecPATH     RecordType = 0x09
	RecSREF     RecordType = 0x0A
	RecAREF     RecordType = 0x0B
	RecTEXT     RecordType = 0x0C
	RecLAYER    RecordType = 0x0D
	RecDATATYPE RecordType = 0x0E
	RecWIDTH    RecordType = 0x0F
	RecXY       RecordType = 0x10
	RecENDEL    RecordType = 0x11
	RecSNAME    RecordType = 0x12
	RecCOLROW   RecordType = 0x13
	RecTEXTNODE RecordType = 0x14
	RecNODE     RecordType = 0x15
	RecTEXTTYPE RecordType = 0x16
	RecPRESENTATION RecordType = 0x17
	RecSTRING   RecordType = 0x19
	RecSTRANS   RecordType = 0x1A
	RecMAG      RecordType = 0x1B
	RecANGLE    RecordType = 0x1C
	RecPATHTYPE RecordType = 0x21
	RecBOX      RecordType = 0x2D
	RecBOXTYPE  RecordType = 0x2E
)

// DataType identifies the encoding of a record's payload.
type DataType byte

const (
	DataNone     DataType = 0
	DataBitArray DataType = 1
	DataInt16    DataType = 2
	DataInt32    DataType = 3
	DataReal32   DataType = 4 // unused by any producer in practice
	DataReal64   DataType = 5
	DataString   DataType = 6
)

// Record is a single decoded GDSII record: its type, its raw data type, and
// the decoded payload in exactly one of the typed fields below.
type Record struct {
	Type     RecordType
	DataType DataType
	Offset   int64 // byte offset of the record header in the source stream
	Length   int   // total record length including the 4-byte header

	Ints    []int32 // populated for DataInt16/DataInt32 (sign-extended to int32)
	Reals   []float64
	Str     string
	BitFlag uint16
}

// Unknown reports whether Type does not match any record this package
// interprets. Per spec §4.1, unknown record types are reported, not
// dropped, by the reader; the Builder decides to skip them.
func (r Record) Unknown() bool {
	switch r.Type {
	case RecHEADER, RecBGNLIB, RecLIBNAME, RecUNITS, RecENDLIB, RecBGNSTR, RecSTRNAME,
		RecENDSTR, RecBOUNDARY, RecPATH, RecSREF, RecAREF, RecTEXT, RecLAYER, RecDATATYPE,
		RecWIDTH, RecXY, RecENDEL, RecSNAME, RecCOLROW, RecTEXTNODE, RecNODE, RecTEXTTYPE,
		RecPRESENTATION, RecSTRING, RecSTRANS, RecMAG, RecANGLE, RecPATHTYPE, RecBOX, RecBOXTYPE:
		return false
	default:
		return true
	}
}
