// Package geometry is the in-memory layout model: points, polygons, cells,
// cell references and the document that owns them. It is read-only after a
// successful load, excepting per-layer visibility and color.
package geometry

import "image/color"

// Point is an ordered pair of signed integers in database units (DBU).
type Point struct {
	X, Y int64
}

// AABB is an axis-aligned bounding box in DBU. It is empty iff MaxX < MinX
// or MaxY < MinY.
type AABB struct {
	MinX, MinY, MaxX, MaxY int64
}

// EmptyAABB returns a box in the empty state, ready to be grown with Union.
func EmptyAABB() AABB {
	return AABB{MinX: 1, MinY: 1, MaxX: 0, MaxY: 0}
}

// Empty reports whether the box contains no points.
func (b AABB) Empty() bool {
	return b.MaxX < b.MinX || b.MaxY < b.MinY
}

// Union returns the smallest box containing both b and o. An empty operand
// is ignored.
func (b AABB) Union(o AABB) AABB {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	return AABB{
		MinX: min64(b.MinX, o.MinX),
		MinY: min64(b.MinY, o.MinY),
		MaxX: max64(b.MaxX, o.MaxX),
		MaxY: max64(b.MaxY, o.MaxY),
	}
}

// Contains reports whether p lies within b, inclusive of the boundary.
func (b AABB) Contains(p Point) bool {
	if b.Empty() {
		return false
	}
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Intersects reports whether b and o share at least one point.
func (b AABB) Intersects(o AABB) bool {
	if b.Empty() || o.Empty() {
		return false
	}
	return b.MinX <= o.MaxX && b.MaxX >= o.MinX && b.MinY <= o.MaxY && b.MaxY >= o.MinY
}

// Width and Height are convenience accessors; both are zero for an empty box.
func (b AABB) Width() int64 {
	if b.Empty() {
		return 0
	}
	return b.MaxX - b.MinX
}

func (b AABB) Height() int64 {
	if b.Empty() {
		return 0
	}
	return b.MaxY - b.MinY
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// PointsBounds computes the AABB of a point sequence. Returns EmptyAABB for
// an empty slice.
func PointsBounds(pts []Point) AABB {
	if len(pts) == 0 {
		return EmptyAABB()
	}
	b := AABB{MinX: pts[0].X, MinY: pts[0].Y, MaxX: pts[0].X, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		b.MinX = min64(b.MinX, p.X)
		b.MinY = min64(b.MinY, p.Y)
		b.MaxX = max64(b.MaxX, p.X)
		b.MaxY = max64(b.MaxY, p.Y)
	}
	return b
}

// LayerID is the (layer, datatype) pair that partitions polygons by meaning.
type LayerID struct {
	Layer    uint16
	Datatype uint16
}

// Layer carries the mutable display state for a LayerID.
type Layer struct {
	ID      LayerID
	Color   color.RGBA
	Visible bool
	Name    string
}

// DefaultLayerColor derives a deterministic color for a layer that has no
// explicit entry, per invariant 5: stable, visually distinct, no registry.
func DefaultLayerColor(id LayerID) color.RGBA {
	h := fnv32(id.Layer, id.Datatype)
	return hsvRamp(h)
}

func fnv32(a, b uint16) uint32 {
	const prime = 16777619
	h := uint32(2166136261)
	h = (h ^ uint32(a)) * prime
	h = (h ^ uint32(b)) * prime
	return h
}

// hsvRamp maps a hash into a fixed, readable hue ramp against the dark
// viewer background: full saturation, high value, hue from the low bits.
func hsvRamp(h uint32) color.RGBA {
	hue := float64(h%360) / 60.0
	i := int(hue)
	f := hue - float64(i)
	v := 0.92
	s := 0.75
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.RGBA{R: to255(r), G: to255(g), B: to255(b), A: 255}
}

func to255(v float64) uint8 {
	n := int(v*255 + 0.5)
	if n < 0 {
		n = 0
	}
	if n > 255 {
		n = 255
	}
	return uint8(n)
}

// Polygon is a closed sequence of points on a layer, with a precomputed AABB.
type Polygon struct {
	Layer  LayerID
	Points []Point
	Bounds AABB
}

// NewPolygon computes Bounds from Points.
func NewPolygon(layer LayerID, pts []Point) Polygon {
	return Polygon{Layer: layer, Points: pts, Bounds: PointsBounds(pts)}
}

// ArraySpec describes a regular grid of array-reference copies.
type ArraySpec struct {
	Rows, Cols     int
	StepX, StepY   int64
}

// CellRef is an oriented, scaled, optionally reflected instance of another
// cell, optionally arrayed into a grid.
type CellRef struct {
	Target      string
	X, Y        int64
	RotationDeg float64
	Reflect     bool
	Mag         float64
	Array       *ArraySpec
	Bounds      AABB
}

// Cell is a named container of polygons and references.
type Cell struct {
	Name     string
	Polygons []Polygon
	Refs     []CellRef
	Bounds   AABB
}

// UnitMetadata carries the two scale factors every document publishes
// before any cell can be interpreted in physical units.
type UnitMetadata struct {
	DBUInUser    float64
	UserInMeters float64
}

// MetersPerDBU converts DBU to meters for display conversions: one DBU is
// (1/DBUInUser) user units, and one user unit is UserInMeters meters.
func (u UnitMetadata) MetersPerDBU() float64 {
	if u.DBUInUser == 0 {
		return 0
	}
	return u.UserInMeters / u.DBUInUser
}

// Warning is a non-fatal condition accumulated during load.
type Warning struct {
	Kind    string
	Cell    string
	Offset  int64
	Message string
}
