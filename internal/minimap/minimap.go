// Package minimap implements the Minimap (§4.10): an independent,
// single-pass renderer over its own cloned Document so its layer
// visibility/color state never shares a lock with the primary viewport, per
// geometry.Document.Clone. It renders the whole design at a fixed scale,
// skips cells flagged SkipInMinimap (too small to matter at this scale),
// and turns a click into a camera recenter command for the primary view.
package minimap

import (
	"context"

	"github.com/hailam/gdsview/internal/batch"
	"github.com/hailam/gdsview/internal/geometry"
	"github.com/hailam/gdsview/internal/viewport"
)

// Minimap owns an independent clone of the document so its own per-layer
// visibility toggles never race with the primary viewport's.
type Minimap struct {
	doc    *geometry.Document
	camera viewport.Camera
}

// New clones doc and fits a camera of the given screen size to its bounds.
func New(doc *geometry.Document, screenW, screenH float64) *Minimap {
	clone := doc.Clone()
	cam := viewport.New(screenW, screenH).FitToView(clone.Bounds, 0.05)
	return &Minimap{doc: clone, camera: cam}
}

// Batches returns the renderable batches for the whole design, excluding
// any cell flagged SkipInMinimap: flagged top cells are not traversed, and
// batches owned by any other flagged cell are dropped after the traversal.
func (m *Minimap) Batches() ([]batch.Batch, error) {
	roots := make([]string, 0, len(m.doc.TopCells))
	for _, c := range m.doc.TopCells {
		if m.doc.SkipInMinimap != nil && m.doc.SkipInMinimap[c] {
			continue
		}
		roots = append(roots, c)
	}
	res, err := traverseFiltered(m.doc, roots)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func traverseFiltered(doc *geometry.Document, roots []string) ([]batch.Batch, error) {
	res, err := batch.Traverse(context.Background(), doc, roots, batch.DefaultBudget())
	if err != nil {
		return nil, err
	}
	out := res.Batches[:0]
	for _, b := range res.Batches {
		if doc.SkipInMinimap != nil && doc.SkipInMinimap[b.Cell] {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// SetLayerVisible toggles a layer's visibility on the minimap's own cloned
// document, independent of the primary viewport's layer state.
func (m *Minimap) SetLayerVisible(id geometry.LayerID, visible bool) {
	if l, ok := m.doc.Layers[id]; ok {
		l.Visible = visible
	}
}

// ClickToWorld maps a minimap-local screen click to the equivalent world
// point, for the engine to recenter the primary viewport on.
func (m *Minimap) ClickToWorld(sx, sy float64) geometry.Point {
	return m.camera.ScreenToWorld(sx, sy)
}

// Bounds returns the full document bounds the minimap represents.
func (m *Minimap) Bounds() geometry.AABB {
	return m.doc.Bounds
}
