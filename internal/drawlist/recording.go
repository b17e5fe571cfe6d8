// Package drawlist provides RecordingDrawList, an in-memory implementation
// of ports.DrawList that stands in for the out-of-scope GPU backend (§1,
// §5). It is what the engine's own tests and the CLI's headless render
// command draw against; a real GPU-backed DrawList is outside this
// module's boundary.
package drawlist

import (
	"image/color"

	"github.com/hailam/gdsview/internal/ports"
)

// FillCommand is one recorded FillPolygon call.
type FillCommand struct {
	Layer string
	Pts   []ports.Vertex
	Fill  color.RGBA
}

// StrokeCommand is one recorded StrokeLine call.
type StrokeCommand struct {
	A, B   ports.Vertex
	Stroke color.RGBA
	Width  float64
}

// RecordingDrawList accumulates every submission in document order within
// the current frame, clearing on Flush.
type RecordingDrawList struct {
	Fills       []FillCommand
	Strokes     []StrokeCommand
	FrameCount  int
}

// New returns an empty RecordingDrawList.
func New() *RecordingDrawList {
	return &RecordingDrawList{}
}

// FillPolygon implements ports.DrawList.
func (d *RecordingDrawList) FillPolygon(layer string, pts []ports.Vertex, fill color.RGBA) {
	d.Fills = append(d.Fills, FillCommand{Layer: layer, Pts: append([]ports.Vertex{}, pts...), Fill: fill})
}

// StrokeLine implements ports.DrawList.
func (d *RecordingDrawList) StrokeLine(a, b ports.Vertex, stroke color.RGBA, width float64) {
	d.Strokes = append(d.Strokes, StrokeCommand{A: a, B: b, Stroke: stroke, Width: width})
}

// Flush implements ports.DrawList: it clears accumulated submissions and
// counts the completed frame, ready for the next one.
func (d *RecordingDrawList) Flush() {
	d.Fills = d.Fills[:0]
	d.Strokes = d.Strokes[:0]
	d.FrameCount++
}
