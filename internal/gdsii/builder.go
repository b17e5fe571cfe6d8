// Package gdsii implements the Binary Record Reader and Document Builder of
// the rendering engine core: a lazy big-endian record decoder and the
// pushdown state machine that folds the record stream into a
// geometry.Document.
package gdsii

import (
	"context"

	"github.com/hailam/gdsview/internal/geometry"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// state is the Document Builder's pushdown automaton state, per spec §4.2.
type state int

const (
	stateTopLevel state = iota
	stateInLibrary
	stateInCell
	stateInBoundary
	stateInSref
	stateInAref
)

// ProgressFunc reports a monotonic 0-100 value and a human-readable message
// at yield points, per §5 concurrency model.
type ProgressFunc func(percent int, message string)

// Statistics summarizes a completed load, per the §6 load entry point.
type Statistics struct {
	FileSize          int64
	TotalCells        int
	TotalPolygons     int
	TopCellNames      []string
	PerLayerPolygons  map[geometry.LayerID]int
	Bounds            geometry.AABB
	WidthMicrons      float64
	HeightMicrons     float64
	DegeneratePolygons int
	UnknownRecords     int
}

// yieldEvery controls how many records are consumed between cooperative
// yield points, per §5 ("per N records, N~=10,000").
const yieldEvery = 10000

// Build consumes the full record stream and assembles a geometry.Document.
// Fatal errors (§7) abort the build; non-fatal conditions accumulate in the
// returned warning slice regardless of the final error.
func Build(ctx context.Context, data []byte, filename string, onProgress ProgressFunc, log *logrus.Logger) (*geometry.Document, Statistics, []geometry.Warning, error) {
	b := &builder{
		reader:   NewRecordReader(data),
		doc:      &geometry.Document{Cells: map[string]*geometry.Cell{}, Layers: map[geometry.LayerID]*geometry.Layer{}},
		onProg:   onProgress,
		filename: filename,
		log:      log,
	}
	stats, err := b.run(ctx)
	return b.doc, stats, b.warnings, err
}

type builder struct {
	reader   *RecordReader
	doc      *geometry.Document
	state    state
	cur      *geometry.Cell
	curLayer geometry.LayerID
	curPoly  []geometry.Point
	curRef   *geometry.CellRef
	colrow   [2]int32

	unitsSet bool
	referenced map[string]bool

	warnings []geometry.Warning
	degenerate int
	unknown    int

	onProg   ProgressFunc
	filename string
	log      *logrus.Logger
	count    int
}

func (b *builder) run(ctx context.Context) (Statistics, error) {
	b.referenced = map[string]bool{}
	b.state = stateTopLevel

	for {
		select {
		case <-ctx.Done():
			return Statistics{}, ctx.Err()
		default:
		}

		rec, err := b.reader.Next()
		if err == ErrEOF {
			break
		}
		if err != nil {
			return Statistics{}, wrapOffset(err, b.reader.Offset(), "decoding record")
		}

		if err := b.handle(rec); err != nil {
			return Statistics{}, err
		}

		b.count++
		if b.count%yieldEvery == 0 {
			b.reportProgress("parsing records")
		}
	}
	b.reportProgress("parsing records")

	if err := geometry.ValidateAcyclic(b.doc); err != nil {
		return Statistics{}, errors.Wrap(err, "validating reference graph")
	}
	b.computeTopCells()
	if err := geometry.ComputeBounds(ctx, b.doc); err != nil {
		return Statistics{}, errors.Wrap(err, "computing bounds")
	}
	b.reportProgressPercent(100, "done")

	stats := Statistics{
		FileSize:           b.reader.Len(),
		TotalCells:         len(b.doc.Cells),
		TotalPolygons:      b.doc.TotalPolygons(),
		TopCellNames:       append([]string{}, b.doc.TopCells...),
		PerLayerPolygons:   b.doc.PerLayerPolygonCounts(),
		Bounds:             b.doc.Bounds,
		DegeneratePolygons: b.degenerate,
		UnknownRecords:     b.unknown,
	}
	mpd := b.doc.Units.MetersPerDBU()
	stats.WidthMicrons = float64(b.doc.Bounds.Width()) * mpd * 1e6
	stats.HeightMicrons = float64(b.doc.Bounds.Height()) * mpd * 1e6
	return stats, nil
}

func (b *builder) reportProgress(msg string) {
	if b.onProg == nil {
		return
	}
	pct := 0
	if total := b.reader.Len(); total > 0 {
		pct = int(float64(b.reader.Offset()) / float64(total) * 100)
	}
	if pct > 99 {
		pct = 99
	}
	b.onProg(pct, msg)
}

func (b *builder) reportProgressPercent(pct int, msg string) {
	if b.onProg != nil {
		b.onProg(pct, msg)
	}
}

func (b *builder) warn(kind, cell, msg string, offset int64) {
	b.warnings = append(b.warnings, geometry.Warning{Kind: kind, Cell: cell, Offset: offset, Message: msg})
	if b.log != nil {
		b.log.WithFields(logrus.Fields{"kind": kind, "cell": cell, "offset": offset}).Warn(msg)
	}
}

func (b *builder) computeTopCells() {
	var top []string
	for name := range b.doc.Cells {
		if !b.referenced[name] {
			top = append(top, name)
		}
	}
	b.doc.TopCells = top
}

func (b *builder) handle(rec Record) error {
	switch b.state {
	case stateTopLevel:
		return b.handleTopLevel(rec)
	case stateInLibrary:
		return b.handleInLibrary(rec)
	case stateInCell:
		return b.handleInCell(rec)
	case stateInBoundary:
		return b.handleInBoundary(rec)
	case stateInSref:
		return b.handleInRef(rec)
	case stateInAref:
		return b.handleInRef(rec)
	}
	return nil
}

func (b *builder) handleTopLevel(rec Record) error {
	if rec.Type == RecHEADER {
		b.state = stateInLibrary
		return nil
	}
	return b.skipUnknown(rec)
}

func (b *builder) handleInLibrary(rec Record) error {
	switch rec.Type {
	case RecUNITS:
		if len(rec.Reals) >= 2 {
			// UNITS holds (user units per DBU, meters per DBU); the model
			// stores DBUs per user unit and meters per user unit.
			b.doc.Units = geometry.UnitMetadata{DBUInUser: 1 / rec.Reals[0], UserInMeters: rec.Reals[1] / rec.Reals[0]}
			b.unitsSet = true
		}
	case RecBGNSTR:
		b.cur = &geometry.Cell{}
		b.state = stateInCell
	case RecENDLIB:
		b.state = stateTopLevel
	case RecBGNLIB, RecLIBNAME:
		// ignored: not part of the geometry model
	default:
		return b.skipUnknown(rec)
	}
	return nil
}

func (b *builder) handleInCell(rec Record) error {
	switch rec.Type {
	case RecSTRNAME:
		b.cur.Name = rec.Str
		b.doc.Cells[rec.Str] = b.cur
	case RecBOUNDARY:
		b.curPoly = nil
		b.curLayer = geometry.LayerID{}
		b.state = stateInBoundary
	case RecSREF:
		b.curRef = &geometry.CellRef{Mag: 1}
		b.state = stateInSref
	case RecAREF:
		b.curRef = &geometry.CellRef{Mag: 1}
		b.state = stateInAref
	case RecENDSTR:
		b.state = stateInLibrary
		b.cur = nil
	case RecPATH, RecTEXT, RecNODE, RecBOX:
		// not modeled by this engine; skip their element body until ENDEL
		return b.skipElement(rec)
	default:
		return b.skipUnknown(rec)
	}
	return nil
}

// skipElement consumes records until ENDEL for an element type this engine
// does not model as geometry (PATH/TEXT/NODE/BOX). It does not count as an
// unknown record since the record types themselves are recognized.
func (b *builder) skipElement(rec Record) error {
	for {
		next, err := b.reader.Next()
		if err != nil {
			return wrapOffset(err, b.reader.Offset(), "decoding record inside skipped element")
		}
		if next.Type == RecENDEL {
			return nil
		}
	}
}

func (b *builder) handleInBoundary(rec Record) error {
	switch rec.Type {
	case RecLAYER:
		if len(rec.Ints) > 0 {
			b.curLayer.Layer = uint16(rec.Ints[0])
		}
	case RecDATATYPE:
		if len(rec.Ints) > 0 {
			b.curLayer.Datatype = uint16(rec.Ints[0])
		}
	case RecXY:
		b.curPoly = append(b.curPoly, intsToPoints(rec.Ints)...)
	case RecENDEL:
		if err := b.finishBoundary(); err != nil {
			return err
		}
		b.state = stateInCell
	default:
		return b.skipUnknown(rec)
	}
	return nil
}

func (b *builder) finishBoundary() error {
	if !b.unitsSet {
		return wrapOffset(&MissingUnitsError{Offset: b.reader.Offset()}, b.reader.Offset(), "boundary before UNITS")
	}
	pts := dedupeClosing(b.curPoly)
	if len(pts) < 3 {
		b.degenerate++
		b.warn("DegeneratePolygon", b.cur.Name, "polygon has fewer than 3 distinct points", b.reader.Offset())
		return nil
	}
	b.ensureLayer(b.curLayer)
	poly := geometry.NewPolygon(b.curLayer, pts)
	b.cur.Polygons = append(b.cur.Polygons, poly)
	return nil
}

// dedupeClosing drops an explicit closing point that repeats the first,
// per §4.2's tie-break: "the last point may or may not repeat the first".
func dedupeClosing(pts []geometry.Point) []geometry.Point {
	if len(pts) >= 2 && pts[0] == pts[len(pts)-1] {
		return pts[:len(pts)-1]
	}
	return pts
}

func (b *builder) ensureLayer(id geometry.LayerID) {
	if _, ok := b.doc.Layers[id]; ok {
		return
	}
	b.doc.Layers[id] = &geometry.Layer{ID: id, Color: geometry.DefaultLayerColor(id), Visible: true}
}

func (b *builder) handleInRef(rec Record) error {
	switch rec.Type {
	case RecSNAME:
		b.curRef.Target = rec.Str
		b.referenced[rec.Str] = true
	case RecSTRANS:
		// bit 15 (MSB of the 16-bit flag) is the reflection-across-X bit.
		b.curRef.Reflect = rec.BitFlag&0x8000 != 0
	case RecMAG:
		if len(rec.Reals) > 0 {
			b.curRef.Mag = rec.Reals[0]
		}
	case RecANGLE:
		if len(rec.Reals) > 0 {
			b.curRef.RotationDeg = rec.Reals[0]
		}
	case RecCOLROW:
		if len(rec.Ints) >= 2 {
			b.colrow[0] = rec.Ints[0]
			b.colrow[1] = rec.Ints[1]
		}
	case RecXY:
		if b.state == stateInSref {
			pts := intsToPoints(rec.Ints)
			if len(pts) > 0 {
				b.curRef.X, b.curRef.Y = pts[0].X, pts[0].Y
			}
		} else {
			b.finishArefXY(rec.Ints)
		}
	case RecENDEL:
		b.finishRef()
		b.state = stateInCell
	default:
		return b.skipUnknown(rec)
	}
	return nil
}

func (b *builder) finishArefXY(ints []int32) {
	pts := intsToPoints(ints)
	if len(pts) < 3 {
		return
	}
	origin, colEnd, rowEnd := pts[0], pts[1], pts[2]
	b.curRef.X, b.curRef.Y = origin.X, origin.Y
	cols := int(b.colrow[1])
	rows := int(b.colrow[0])
	var stepX, stepY int64
	if cols != 0 {
		stepX = (colEnd.X - origin.X) / int64(cols)
	}
	if rows != 0 {
		stepY = (rowEnd.Y - origin.Y) / int64(rows)
	}
	b.curRef.Array = &geometry.ArraySpec{Rows: rows, Cols: cols, StepX: stepX, StepY: stepY}
}

func (b *builder) finishRef() {
	ref := *b.curRef
	// An AREF with rows=1, cols=1 is materialized as a single reference, per
	// §4.2's tie-break.
	if ref.Array != nil && ref.Array.Rows == 1 && ref.Array.Cols == 1 {
		ref.Array = nil
	}
	if ref.Array != nil && (ref.Array.Rows < 0 || ref.Array.Cols < 0) {
		b.warn("DegenerateArray", b.cur.Name, "array has a negative row/col count; interpreting as reversed step direction", b.reader.Offset())
		if ref.Array.Rows < 0 {
			ref.Array.Rows = -ref.Array.Rows
			ref.Array.StepY = -ref.Array.StepY
		}
		if ref.Array.Cols < 0 {
			ref.Array.Cols = -ref.Array.Cols
			ref.Array.StepX = -ref.Array.StepX
		}
	}
	b.cur.Refs = append(b.cur.Refs, ref)
	b.curRef = nil
}

func (b *builder) skipUnknown(rec Record) error {
	b.unknown++
	b.warn("UnknownRecord", b.currentCellName(), "unknown record type skipped", rec.Offset)
	return nil
}

func (b *builder) currentCellName() string {
	if b.cur != nil {
		return b.cur.Name
	}
	return ""
}

func intsToPoints(ints []int32) []geometry.Point {
	pts := make([]geometry.Point, 0, len(ints)/2)
	for i := 0; i+1 < len(ints); i += 2 {
		pts = append(pts, geometry.Point{X: int64(ints[i]), Y: int64(ints[i+1])})
	}
	return pts
}
