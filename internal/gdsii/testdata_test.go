package gdsii

import "encoding/binary"

// gdsBuilder assembles a raw GDSII byte stream record-by-record for tests,
// the inverse of RecordReader.
type gdsBuilder struct {
	buf []byte
}

func (g *gdsBuilder) header(t RecordType, dt DataType, payload []byte) {
	length := 4 + len(payload)
	head := make([]byte, 4)
	binary.BigEndian.PutUint16(head[0:2], uint16(length))
	head[2] = byte(t)
	head[3] = byte(dt)
	g.buf = append(g.buf, head...)
	g.buf = append(g.buf, payload...)
}

func (g *gdsBuilder) none(t RecordType) {
	g.header(t, DataNone, nil)
}

func (g *gdsBuilder) int16s(t RecordType, vals ...int16) {
	payload := make([]byte, len(vals)*2)
	for i, v := range vals {
		binary.BigEndian.PutUint16(payload[i*2:], uint16(v))
	}
	g.header(t, DataInt16, payload)
}

func (g *gdsBuilder) int32s(t RecordType, vals ...int32) {
	payload := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.BigEndian.PutUint32(payload[i*4:], uint32(v))
	}
	g.header(t, DataInt32, payload)
}

func (g *gdsBuilder) real64s(t RecordType, vals ...float64) {
	payload := make([]byte, len(vals)*8)
	for i, v := range vals {
		enc := encodeReal64(v)
		copy(payload[i*8:], enc[:])
	}
	g.header(t, DataReal64, payload)
}

func (g *gdsBuilder) str(t RecordType, s string) {
	payload := []byte(s)
	if len(payload)%2 != 0 {
		payload = append(payload, 0)
	}
	g.header(t, DataString, payload)
}

func (g *gdsBuilder) bitArray(t RecordType, flag uint16) {
	payload := make([]byte, 2)
	binary.BigEndian.PutUint16(payload, flag)
	g.header(t, DataBitArray, payload)
}

func (g *gdsBuilder) bytes() []byte { return g.buf }

// simpleLib builds a minimal single-cell library with one boundary and
// returns its bytes: HEADER, BGNLIB, UNITS, BGNSTR/STRNAME/BOUNDARY/ENDSTR,
// ENDLIB.
func simpleLibBytes(cellName string, pts [][2]int32) []byte {
	g := &gdsBuilder{}
	g.int16s(RecHEADER, 600)
	g.int16s(RecBGNLIB, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	g.real64s(RecUNITS, 0.001, 1e-9)
	g.int16s(RecBGNSTR, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	g.str(RecSTRNAME, cellName)
	g.none(RecBOUNDARY)
	g.int16s(RecLAYER, 1)
	g.int16s(RecDATATYPE, 0)
	ints := make([]int32, 0, len(pts)*2)
	for _, p := range pts {
		ints = append(ints, p[0], p[1])
	}
	g.int32s(RecXY, ints...)
	g.none(RecENDEL)
	g.none(RecENDSTR)
	g.none(RecENDLIB)
	return g.bytes()
}
