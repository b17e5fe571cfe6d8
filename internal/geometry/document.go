package geometry

import (
	"math"

	"github.com/mohae/deepcopy"
)

// Document is the root of the geometry model: a mapping of cell name to
// Cell, the layer table, the top-cell list, the overall bounds and unit
// metadata. It is immutable after Build, excepting Layer.Visible/Color.
type Document struct {
	Cells         map[string]*Cell
	Layers        map[LayerID]*Layer
	TopCells      []string
	Bounds        AABB
	Units         UnitMetadata
	SourceFile    string
	SkipInMinimap map[string]bool
}

// Transform is an affine map composed of translation, rotation, optional
// reflection across X (applied before rotation) and magnification, matching
// the Cell Reference semantics of the data model.
type Transform struct {
	X, Y        float64
	RotationDeg float64
	Reflect     bool
	Mag         float64
}

// Identity is the no-op transform.
func Identity() Transform {
	return Transform{Mag: 1}
}

// Apply maps a point through the transform: reflect, scale, rotate, translate.
func (t Transform) Apply(p Point) Point {
	x, y := float64(p.X), float64(p.Y)
	if t.Reflect {
		y = -y
	}
	mag := t.Mag
	if mag == 0 {
		mag = 1
	}
	x *= mag
	y *= mag
	rad := t.RotationDeg * math.Pi / 180
	cs, sn := math.Cos(rad), math.Sin(rad)
	rx := x*cs - y*sn
	ry := x*sn + y*cs
	return Point{X: int64(math.Round(rx + t.X)), Y: int64(math.Round(ry + t.Y))}
}

// Compose returns the transform equivalent to applying t first, then outer.
func Compose(outer, t Transform) Transform {
	origin := outer.Apply(Point{X: int64(t.X), Y: int64(t.Y)})
	mag := t.Mag
	if mag == 0 {
		mag = 1
	}
	outerMag := outer.Mag
	if outerMag == 0 {
		outerMag = 1
	}
	return Transform{
		X:           float64(origin.X),
		Y:           float64(origin.Y),
		RotationDeg: normalizeAngle(outer.RotationDeg + signedAngle(outer.Reflect, t.RotationDeg)),
		Reflect:     outer.Reflect != t.Reflect,
		Mag:         outerMag * mag,
	}
}

func signedAngle(reflected bool, deg float64) float64 {
	if reflected {
		return -deg
	}
	return deg
}

func normalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// TransformAABB maps a box through t. Because rotation is general, the
// result is the bounding box of the four transformed corners.
func (t Transform) TransformAABB(b AABB) AABB {
	if b.Empty() {
		return b
	}
	corners := [4]Point{
		{X: b.MinX, Y: b.MinY},
		{X: b.MaxX, Y: b.MinY},
		{X: b.MaxX, Y: b.MaxY},
		{X: b.MinX, Y: b.MaxY},
	}
	out := EmptyAABB()
	for _, c := range corners {
		p := t.Apply(c)
		out = out.Union(AABB{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y})
	}
	return out
}

// RefTransform returns the CellRef's own transform (translation, rotation,
// reflection, magnification), ignoring array expansion.
func (r CellRef) RefTransform() Transform {
	mag := r.Mag
	if mag == 0 {
		mag = 1
	}
	return Transform{X: float64(r.X), Y: float64(r.Y), RotationDeg: r.RotationDeg, Reflect: r.Reflect, Mag: mag}
}

// ArrayOffsets expands an ArraySpec into per-copy translation offsets,
// honoring the degenerate-array rules of spec Open Questions §9: rows=0 or
// cols=0 omits output entirely, and a negative step reverses direction.
func (a *ArraySpec) ArrayOffsets() []Point {
	if a == nil {
		return []Point{{}}
	}
	if a.Rows == 0 || a.Cols == 0 {
		return nil
	}
	out := make([]Point, 0, a.Rows*a.Cols)
	for row := 0; row < a.Rows; row++ {
		for col := 0; col < a.Cols; col++ {
			out = append(out, Point{X: int64(col) * a.StepX, Y: int64(row) * a.StepY})
		}
	}
	return out
}

// Clone returns an independent deep copy of the document, used so the
// minimap can carry its own layer visibility/color state without sharing a
// lock with the primary viewport (see DESIGN.md).
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	return deepcopy.Copy(d).(*Document)
}

// TotalPolygons counts every polygon owned directly by every cell (not
// instance-expanded); used for load statistics.
func (d *Document) TotalPolygons() int {
	n := 0
	for _, c := range d.Cells {
		n += len(c.Polygons)
	}
	return n
}

// PerLayerPolygonCounts tallies direct (non-instance-expanded) polygon
// counts per layer, for load statistics.
func (d *Document) PerLayerPolygonCounts() map[LayerID]int {
	counts := make(map[LayerID]int, len(d.Layers))
	for _, c := range d.Cells {
		for _, p := range c.Polygons {
			counts[p.Layer]++
		}
	}
	return counts
}
