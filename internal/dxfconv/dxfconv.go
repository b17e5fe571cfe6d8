// Package dxfconv is the thin DXF-to-geometry converter named in spec §6:
// it reads the ASCII group-code stream of a DXF file's ENTITIES section and
// produces the same in-memory geometry.Document the GDSII builder produces.
// It does not attempt full DXF fidelity (blocks, dimensions, hatches are
// out of scope); only the entity kinds spec §6 names are converted.
package dxfconv

import (
	"bufio"
	"bytes"
	"hash/fnv"
	"math"
	"strconv"
	"strings"

	"github.com/hailam/gdsview/internal/geometry"
	"github.com/pkg/errors"
)

// Config tunes converter choices left open by spec §6.
type Config struct {
	// LineWidthDBU widens a DXF LINE into a thin rectangle this many DBU
	// wide, since a zero-width 2-point polygon would be rejected as
	// degenerate (the "widen" implementation choice spec §6 allows).
	LineWidthDBU int64
	// CircleSides is the regular polygon approximation used for CIRCLE.
	CircleSides int
	// ArcSegments is the number of line segments used for ARC.
	ArcSegments int
}

// DefaultConfig matches spec §6 exactly: 32-gon circles, 16-segment arcs, a
// 1 DBU default line width, 1 DBU = 1 nm and 1 user unit = 1 mm.
func DefaultConfig() Config {
	return Config{LineWidthDBU: 1, CircleSides: 32, ArcSegments: 16}
}

// group is one DXF (code, value) pair.
type group struct {
	code  int
	value string
}

// Convert parses a DXF byte stream and returns the equivalent Document.
func Convert(data []byte, filename string, cfg Config) (*geometry.Document, []geometry.Warning, error) {
	groups, err := scanGroups(data)
	if err != nil {
		return nil, nil, errors.Wrap(err, "scanning DXF group codes")
	}

	doc := &geometry.Document{
		Cells:  map[string]*geometry.Cell{"DXF": {Name: "DXF"}},
		Layers: map[geometry.LayerID]*geometry.Layer{},
		Units:  geometry.UnitMetadata{DBUInUser: 1e6, UserInMeters: 1e-3}, // 1 DBU = 1nm, 1 user unit = 1mm
		SourceFile: filename,
	}
	cell := doc.Cells["DXF"]

	var warnings []geometry.Warning
	c := &converter{cfg: cfg, doc: doc, cell: cell}

	// Linear scan for SECTION ENTITIES ... ENDSEC, then dispatch per ENTITY
	// start marker (group code 0).
	idx := 0
	for idx < len(groups) {
		if groups[idx].code == 0 && groups[idx].value == "SECTION" &&
			idx+2 < len(groups) && groups[idx+1].code == 2 && groups[idx+1].value == "ENTITIES" {
			idx += 2
			end := idx
			for end < len(groups) && !(groups[end].code == 0 && groups[end].value == "ENDSEC") {
				end++
			}
			ws, err := c.convertEntities(groups[idx:end])
			if err != nil {
				return nil, nil, err
			}
			warnings = append(warnings, ws...)
			idx = end
			continue
		}
		idx++
	}

	cell.Bounds = geometry.EmptyAABB()
	for _, p := range cell.Polygons {
		cell.Bounds = cell.Bounds.Union(p.Bounds)
	}
	doc.Bounds = cell.Bounds
	doc.TopCells = []string{"DXF"}
	doc.SkipInMinimap = map[string]bool{}
	return doc, warnings, nil
}

type converter struct {
	cfg  Config
	doc  *geometry.Document
	cell *geometry.Cell
}

// convertEntities walks the flat group list of one ENTITIES section,
// splitting it into per-entity runs at each code-0 marker.
func (c *converter) convertEntities(groups []group) ([]geometry.Warning, error) {
	var warnings []geometry.Warning
	i := 0
	for i < len(groups) {
		if groups[i].code != 0 {
			i++
			continue
		}
		kind := groups[i].value
		j := i + 1
		for j < len(groups) && groups[j].code != 0 {
			j++
		}
		entity := groups[i+1 : j]
		switch kind {
		case "LWPOLYLINE", "POLYLINE":
			c.addPolyline(entity)
		case "LINE":
			c.addLine(entity)
		case "CIRCLE":
			c.addCircle(entity)
		case "ARC":
			c.addArc(entity)
		case "SOLID", "3DFACE":
			c.addSolid(entity)
		default:
			warnings = append(warnings, geometry.Warning{Kind: "UnknownDXFEntity", Message: kind})
		}
		i = j
	}
	return warnings, nil
}

func (c *converter) layerFor(entity []group) geometry.LayerID {
	name := "0"
	for _, g := range entity {
		if g.code == 8 {
			name = g.value
			break
		}
	}
	return c.layerForName(name)
}

func (c *converter) layerForName(name string) geometry.LayerID {
	h := fnv.New32a()
	h.Write([]byte(name))
	id := geometry.LayerID{Layer: uint16(h.Sum32() % 256), Datatype: 0}
	if _, ok := c.doc.Layers[id]; !ok {
		c.doc.Layers[id] = &geometry.Layer{ID: id, Color: geometry.DefaultLayerColor(id), Visible: true, Name: name}
	}
	return id
}

func (c *converter) addPolygonPoints(layer geometry.LayerID, pts []geometry.Point) {
	if len(pts) >= 2 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return
	}
	c.cell.Polygons = append(c.cell.Polygons, geometry.NewPolygon(layer, pts))
}

func (c *converter) addPolyline(entity []group) {
	layer := c.layerFor(entity)
	var pts []geometry.Point
	var x, y float64
	haveX, haveY := false, false
	for _, g := range entity {
		switch g.code {
		case 10:
			x = mustFloat(g.value)
			haveX = true
		case 20:
			y = mustFloat(g.value)
			haveY = true
		}
		if haveX && haveY {
			pts = append(pts, toDBU(x, y))
			haveX, haveY = false, false
		}
	}
	c.addPolygonPoints(layer, pts)
}

func (c *converter) addLine(entity []group) {
	layer := c.layerFor(entity)
	var x1, y1, x2, y2 float64
	for _, g := range entity {
		switch g.code {
		case 10:
			x1 = mustFloat(g.value)
		case 20:
			y1 = mustFloat(g.value)
		case 11:
			x2 = mustFloat(g.value)
		case 21:
			y2 = mustFloat(g.value)
		}
	}
	a, b := toDBU(x1, y1), toDBU(x2, y2)
	c.addPolygonPoints(layer, widenSegment(a, b, c.cfg.LineWidthDBU))
}

func widenSegment(a, b geometry.Point, width int64) []geometry.Point {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil
	}
	nx, ny := -dy/length*float64(width)/2, dx/length*float64(width)/2
	off := geometry.Point{X: int64(math.Round(nx)), Y: int64(math.Round(ny))}
	return []geometry.Point{
		{X: a.X + off.X, Y: a.Y + off.Y},
		{X: b.X + off.X, Y: b.Y + off.Y},
		{X: b.X - off.X, Y: b.Y - off.Y},
		{X: a.X - off.X, Y: a.Y - off.Y},
	}
}

func (c *converter) addCircle(entity []group) {
	layer := c.layerFor(entity)
	var cx, cy, r float64
	for _, g := range entity {
		switch g.code {
		case 10:
			cx = mustFloat(g.value)
		case 20:
			cy = mustFloat(g.value)
		case 40:
			r = mustFloat(g.value)
		}
	}
	pts := regularPolygon(cx, cy, r, c.cfg.CircleSides, 0, 360)
	c.addPolygonPoints(layer, pts)
}

func (c *converter) addArc(entity []group) {
	layer := c.layerFor(entity)
	var cx, cy, r, start, end float64
	for _, g := range entity {
		switch g.code {
		case 10:
			cx = mustFloat(g.value)
		case 20:
			cy = mustFloat(g.value)
		case 40:
			r = mustFloat(g.value)
		case 50:
			start = mustFloat(g.value)
		case 51:
			end = mustFloat(g.value)
		}
	}
	pts := arcSegments(cx, cy, r, start, end, c.cfg.ArcSegments)
	// An arc chord is open, not closed; widen like a polyline-of-segments by
	// closing through the center so it renders as a fillable wedge.
	pts = append(pts, toDBU(cx, cy))
	c.addPolygonPoints(layer, pts)
}

func (c *converter) addSolid(entity []group) {
	layer := c.layerFor(entity)
	corners := map[int][2]float64{}
	for _, g := range entity {
		switch g.code {
		case 10, 20, 11, 21, 12, 22, 13, 23:
			idx := cornerIndex(g.code)
			v := corners[idx]
			if isXCode(g.code) {
				v[0] = mustFloat(g.value)
			} else {
				v[1] = mustFloat(g.value)
			}
			corners[idx] = v
		}
	}
	pts := make([]geometry.Point, 0, 4)
	for i := 0; i < 4; i++ {
		if v, ok := corners[i]; ok {
			pts = append(pts, toDBU(v[0], v[1]))
		}
	}
	// Degenerate 3-corner SOLID: DXF convention repeats the 3rd corner as
	// the 4th; collapse here if only 3 were provided.
	if len(pts) == 3 {
		pts = append(pts, pts[2])
	}
	c.addPolygonPoints(layer, pts)
}

func cornerIndex(code int) int {
	switch code {
	case 10, 20:
		return 0
	case 11, 21:
		return 1
	case 12, 22:
		return 2
	default:
		return 3
	}
}

func isXCode(code int) bool { return code == 10 || code == 11 || code == 12 || code == 13 }

func regularPolygon(cx, cy, r float64, sides int, startDeg, endDeg float64) []geometry.Point {
	if sides < 3 {
		sides = 3
	}
	pts := make([]geometry.Point, 0, sides)
	span := (endDeg - startDeg) * math.Pi / 180
	for i := 0; i < sides; i++ {
		a := startDeg*math.Pi/180 + span*float64(i)/float64(sides)
		pts = append(pts, toDBU(cx+r*math.Cos(a), cy+r*math.Sin(a)))
	}
	return pts
}

func arcSegments(cx, cy, r, startDeg, endDeg float64, n int) []geometry.Point {
	if n < 1 {
		n = 1
	}
	pts := make([]geometry.Point, 0, n+1)
	span := endDeg - startDeg
	for i := 0; i <= n; i++ {
		a := (startDeg + span*float64(i)/float64(n)) * math.Pi / 180
		pts = append(pts, toDBU(cx+r*math.Cos(a), cy+r*math.Sin(a)))
	}
	return pts
}

// toDBU converts DXF user-unit coordinates (mm, per DefaultConfig's units)
// into DBU (nm): 1 mm = 1_000_000 nm.
func toDBU(x, y float64) geometry.Point {
	return geometry.Point{X: int64(math.Round(x * 1e6)), Y: int64(math.Round(y * 1e6))}
}

func mustFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// scanGroups tokenizes a DXF ASCII stream into (code, value) pairs: each
// group is two lines, a decimal code followed by its value.
func scanGroups(data []byte) ([]group, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var groups []group
	for sc.Scan() {
		codeLine := strings.TrimSpace(sc.Text())
		if !sc.Scan() {
			return nil, errors.New("truncated DXF group (missing value line)")
		}
		valueLine := strings.TrimRight(sc.Text(), "\r")
		code, err := strconv.Atoi(codeLine)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid DXF group code %q", codeLine)
		}
		groups = append(groups, group{code: code, value: valueLine})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}
