package ports

import "image/color"

// Vertex is a single world-space-transformed, screen-projected point
// submitted to a DrawList.
type Vertex struct {
	X, Y float64
}

// DrawList is the opaque batched 2-D draw surface the engine emits against.
// It stands in for the out-of-scope GPU abstraction (spec §1): the core
// only ever produces filled polygons and strokes, submitted in document
// order (§5, "the GPU draw list is opaque; the core treats it as a FIFO
// emitted in document order").
type DrawList interface {
	// FillPolygon submits a filled, closed polygon in screen space.
	FillPolygon(layer string, pts []Vertex, fill color.RGBA)
	// StrokeLine submits a single open line segment in screen space, used
	// by overlays (grid lines, scale bar, viewport outline).
	StrokeLine(a, b Vertex, stroke color.RGBA, width float64)
	// Flush marks the end of a frame's submissions.
	Flush()
}
