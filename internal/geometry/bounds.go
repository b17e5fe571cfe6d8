package geometry

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ErrUnresolvedReference is returned when a CellRef's target does not exist.
type ErrUnresolvedReference struct{ Name string }

func (e *ErrUnresolvedReference) Error() string {
	return "unresolved reference: " + e.Name
}

// ErrReferenceCycle is returned when the reference graph contains a cycle;
// Path lists the cell names in traversal order, repeating the closing name.
type ErrReferenceCycle struct{ Path []string }

func (e *ErrReferenceCycle) Error() string {
	s := "reference cycle: "
	for i, n := range e.Path {
		if i > 0 {
			s += " -> "
		}
		s += n
	}
	return s
}

const (
	white = 0
	gray  = 1
	black = 2
)

// ValidateAcyclic performs a DFS over the Cell -> [target names] graph,
// failing with ErrUnresolvedReference or ErrReferenceCycle. It must run
// before ComputeBounds, which assumes a DAG.
func ValidateAcyclic(doc *Document) error {
	color := make(map[string]int, len(doc.Cells))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		cell, ok := doc.Cells[name]
		if !ok {
			return &ErrUnresolvedReference{Name: name}
		}
		color[name] = gray
		stack = append(stack, name)
		for _, ref := range cell.Refs {
			switch color[ref.Target] {
			case white:
				if err := visit(ref.Target); err != nil {
					return err
				}
			case gray:
				path := append(append([]string{}, stack...), ref.Target)
				return &ErrReferenceCycle{Path: path}
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		return nil
	}

	for name := range doc.Cells {
		if color[name] == white {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// ComputeBounds fills in every Cell.Bounds and every CellRef.Bounds
// bottom-up, memoized over the reference DAG, then sets Document.Bounds to
// the union of transformed top-cell bounds. The document must already be
// acyclic (see ValidateAcyclic). Independent subtrees are computed
// concurrently via an errgroup, safe because the model is write-once until
// this pass completes.
func ComputeBounds(ctx context.Context, doc *Document) error {
	var mu sync.Mutex
	memo := make(map[string]struct{})

	var compute func(name string) error
	compute = func(name string) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		mu.Lock()
		_, done := memo[name]
		mu.Unlock()
		if done {
			return nil
		}
		cell, ok := doc.Cells[name]
		if !ok {
			return &ErrUnresolvedReference{Name: name}
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := range cell.Refs {
			target := cell.Refs[i].Target
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				return compute(target)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		bounds := EmptyAABB()
		for _, p := range cell.Polygons {
			bounds = bounds.Union(p.Bounds)
		}
		for i := range cell.Refs {
			ref := &cell.Refs[i]
			target := doc.Cells[ref.Target]
			refBounds := EmptyAABB()
			base := ref.RefTransform()
			for _, off := range ref.Array.ArrayOffsets() {
				t := base
				t.X += float64(off.X)
				t.Y += float64(off.Y)
				refBounds = refBounds.Union(t.TransformAABB(target.Bounds))
			}
			ref.Bounds = refBounds
			bounds = bounds.Union(refBounds)
		}

		mu.Lock()
		cell.Bounds = bounds
		memo[name] = struct{}{}
		mu.Unlock()
		return nil
	}

	var g errgroup.Group
	for name := range doc.Cells {
		name := name
		g.Go(func() error { return compute(name) })
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "computing cell bounds")
	}

	top := EmptyAABB()
	for _, name := range doc.TopCells {
		cell, ok := doc.Cells[name]
		if !ok {
			return &ErrUnresolvedReference{Name: name}
		}
		top = top.Union(cell.Bounds)
	}
	doc.Bounds = top
	annotateSkipInMinimap(doc)
	return nil
}

// annotateSkipInMinimap flags cells whose world-space AABB is smaller than
// 1% of the document's largest extent, per spec §4.3. Advisory only.
func annotateSkipInMinimap(doc *Document) {
	doc.SkipInMinimap = make(map[string]bool, len(doc.Cells))
	largest := maxExtent(doc.Bounds)
	if largest <= 0 {
		return
	}
	threshold := largest * 0.01
	for name, cell := range doc.Cells {
		if maxExtent(cell.Bounds) < threshold {
			doc.SkipInMinimap[name] = true
		}
	}
}

func maxExtent(b AABB) float64 {
	w := float64(b.Width())
	h := float64(b.Height())
	if w > h {
		return w
	}
	return h
}
