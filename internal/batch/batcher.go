// Package batch implements the Batcher / Scene Graph Traversal component
// (§4.5): it walks the cell reference DAG top-down from each top cell,
// expanding array references into per-copy instances, accumulating the
// composed world transform, and emitting polygon batches clipped to a
// depth and polygon-count budget. Its output seeds the Spatial Index.
package batch

import (
	"context"

	"github.com/hailam/gdsview/internal/geometry"
	"github.com/hailam/gdsview/internal/lod"
	"github.com/hailam/gdsview/internal/spatial"
)

// Batch is one renderable unit: a polygon instanced at a world transform.
type Batch struct {
	Layer     geometry.LayerID
	Polygon   *geometry.Polygon
	Transform geometry.Transform
	Bounds    geometry.AABB
	Cell      string
	Depth     int
}

// Budget caps a single traversal: MaxPolygons stops emission once reached
// (output-sensitive, per §4.5), MaxDepth clamps recursion regardless of
// actual DAG depth (lod.ClampDepth's [0,10] range).
type Budget struct {
	MaxPolygons int
	MaxDepth    int
}

// DefaultBudget matches the reference tuning in §4.5: 10 recursion levels,
// 2,000,000 polygons per traversal before truncation.
func DefaultBudget() Budget {
	return Budget{MaxPolygons: 2_000_000, MaxDepth: 10}
}

// Result is the traversal's output: a flat batch list ready to populate a
// spatial.Tree, plus whether the polygon budget truncated output.
type Result struct {
	Batches   []Batch
	Truncated bool
}

// Traverse walks doc's DAG from every top cell (or from roots if non-empty),
// honoring budget, and returns the flattened batch list. It returns early
// (with a partial Result) if ctx is canceled.
func Traverse(ctx context.Context, doc *geometry.Document, roots []string, budget Budget) (Result, error) {
	if len(roots) == 0 {
		roots = doc.TopCells
	}
	maxDepth := lod.ClampDepth(budget.MaxDepth)
	tr := &traversal{doc: doc, budget: budget, maxDepth: maxDepth}
	for _, root := range roots {
		select {
		case <-ctx.Done():
			return Result{Batches: tr.out, Truncated: tr.truncated}, ctx.Err()
		default:
		}
		if tr.truncated {
			break
		}
		tr.visit(root, geometry.Identity(), 0)
	}
	return Result{Batches: tr.out, Truncated: tr.truncated}, nil
}

type traversal struct {
	doc       *geometry.Document
	budget    Budget
	maxDepth  int
	out       []Batch
	truncated bool
}

func (tr *traversal) visit(cellName string, parent geometry.Transform, depth int) {
	if tr.truncated || depth > tr.maxDepth {
		return
	}
	cell, ok := tr.doc.Cells[cellName]
	if !ok {
		return
	}
	for i := range cell.Polygons {
		if tr.budget.MaxPolygons > 0 && len(tr.out) >= tr.budget.MaxPolygons {
			tr.truncated = true
			return
		}
		p := &cell.Polygons[i]
		tr.out = append(tr.out, Batch{
			Layer:     p.Layer,
			Polygon:   p,
			Transform: parent,
			Bounds:    parent.TransformAABB(p.Bounds),
			Cell:      cellName,
			Depth:     depth,
		})
	}
	for _, ref := range cell.Refs {
		refTr := ref.RefTransform()
		offsets := ref.Array.ArrayOffsets()
		for _, off := range offsets {
			if tr.truncated {
				return
			}
			// Array offsets are in the parent cell's frame, so they shift
			// the reference origin before composing with parent.
			local := refTr
			local.X += float64(off.X)
			local.Y += float64(off.Y)
			tr.visit(ref.Target, geometry.Compose(parent, local), depth+1)
		}
	}
}

// BuildIndex bulk-loads a spatial.Tree from a traversal Result, assigning
// each batch a stable index-position id so callers can round-trip
// spatial.Item back to its Batch through the slice index in its Payload.
func BuildIndex(res Result) *spatial.Tree {
	tree := spatial.New()
	items := make([]spatial.Item, 0, len(res.Batches))
	for i, b := range res.Batches {
		items = append(items, spatial.Item{
			ID:      i,
			Bounds:  b.Bounds,
			Kind:    spatial.KindPolygonBatch,
			Payload: i,
		})
	}
	tree.BulkLoad(items)
	return tree
}
