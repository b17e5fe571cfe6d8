package minimap

import (
	"testing"

	"github.com/hailam/gdsview/internal/geometry"
	"github.com/stretchr/testify/require"
)

func testDoc() *geometry.Document {
	layer := geometry.LayerID{Layer: 1}
	big := &geometry.Cell{
		Name:     "BIG",
		Polygons: []geometry.Polygon{geometry.NewPolygon(layer, []geometry.Point{{X: 0, Y: 0}, {X: 1000, Y: 0}, {X: 1000, Y: 1000}, {X: 0, Y: 1000}})},
		Bounds:   geometry.AABB{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000},
	}
	tiny := &geometry.Cell{
		Name:     "TINY",
		Polygons: []geometry.Polygon{geometry.NewPolygon(layer, []geometry.Point{{X: 2000, Y: 2000}, {X: 2001, Y: 2000}, {X: 2001, Y: 2001}})},
		Bounds:   geometry.AABB{MinX: 2000, MinY: 2000, MaxX: 2001, MaxY: 2001},
	}
	doc := &geometry.Document{
		Cells:    map[string]*geometry.Cell{"BIG": big, "TINY": tiny},
		Layers:   map[geometry.LayerID]*geometry.Layer{layer: {ID: layer, Visible: true}},
		TopCells: []string{"BIG", "TINY"},
		Bounds:   geometry.AABB{MinX: 0, MinY: 0, MaxX: 2001, MaxY: 2001},
		SkipInMinimap: map[string]bool{"TINY": true},
	}
	return doc
}

func TestNew_ClonesDocument(t *testing.T) {
	doc := testDoc()
	mm := New(doc, 200, 200)
	mm.SetLayerVisible(geometry.LayerID{Layer: 1}, false)
	require.True(t, doc.Layers[geometry.LayerID{Layer: 1}].Visible, "original document must be unaffected by minimap state changes")
}

func TestBatches_SkipsFlaggedCells(t *testing.T) {
	doc := testDoc()
	mm := New(doc, 200, 200)
	batches, err := mm.Batches()
	require.NoError(t, err)
	for _, b := range batches {
		require.NotEqual(t, "TINY", b.Cell)
	}
	require.NotEmpty(t, batches)
}

func TestClickToWorld_MapsWithinBounds(t *testing.T) {
	doc := testDoc()
	mm := New(doc, 200, 200)
	center := mm.ClickToWorld(100, 100)
	require.True(t, doc.Bounds.Contains(center), "clicking the minimap's screen center should land near the fitted document bounds' center")
}

func TestBounds_MatchesDocument(t *testing.T) {
	doc := testDoc()
	mm := New(doc, 200, 200)
	require.Equal(t, doc.Bounds, mm.Bounds())
}
