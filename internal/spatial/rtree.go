// Package spatial implements the Spatial Index of the rendering engine: a
// bulk-loadable R-tree keyed by world-space AABB, supporting window and
// point queries over batch items (§4.4).
//
// No R-tree implementation appears anywhere in this corpus's retrieval
// pack, so this package is hand-written against the standard library only;
// see DESIGN.md for the per-dependency justification this system requires
// whenever a component falls back to stdlib. The bulk-load strategy is the
// Sort-Tile-Recursive (STR) algorithm: sort by one axis, slice into strips,
// sort each strip by the other axis, group into leaves. It is a standard,
// well-understood construction with no third-party package to lean on here.
package spatial

import (
	"sort"

	"github.com/hailam/gdsview/internal/geometry"
)

// ItemKind distinguishes what a spatial item's Payload refers to.
type ItemKind int

const (
	KindPolygonBatch ItemKind = iota
	KindCellInstance
)

// Item is a single entry in the index: a bounded thing with a stable id and
// an opaque payload the Batcher uses to toggle batch visibility.
type Item struct {
	Bounds  geometry.AABB
	ID      int
	Kind    ItemKind
	Payload interface{}
}

const maxLeafSize = 16

// node is either a leaf (holding Items directly) or an internal node
// (holding child nodes), always carrying the union of its children's boxes.
type node struct {
	bounds   geometry.AABB
	items    []Item  // leaf only
	children []*node // internal only
}

func (n *node) leaf() bool { return n.children == nil }

// Tree is a bulk-loadable, read-mostly R-tree. Insertion order has no
// semantic effect; Insert/Remove are supported for incremental updates
// between bulk loads (the Batcher rebuilds via BulkLoad on every LOD
// commit, per §4.4/§4.6).
type Tree struct {
	root  *node
	items map[int]Item
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{items: map[int]Item{}}
}

// Clear removes every item.
func (t *Tree) Clear() {
	t.root = nil
	t.items = map[int]Item{}
}

// BulkLoad replaces the tree contents with items, built via STR
// partitioning for good leaf locality on the kind of dense, near-uniform
// geometry a laid-out chip produces.
func (t *Tree) BulkLoad(items []Item) {
	t.items = make(map[int]Item, len(items))
	for _, it := range items {
		t.items[it.ID] = it
	}
	if len(items) == 0 {
		t.root = nil
		return
	}
	cp := make([]Item, len(items))
	copy(cp, items)
	t.root = strBuild(cp)
}

// Insert adds a single item, descending to the lowest-cost leaf. Used for
// incremental updates; BulkLoad should be preferred when rebuilding most of
// the tree at once (LOD commits).
func (t *Tree) Insert(it Item) {
	t.items[it.ID] = it
	if t.root == nil {
		t.root = &node{bounds: it.Bounds, items: []Item{it}}
		return
	}
	insert(t.root, it)
	growBounds(t.root)
}

// Remove deletes the item with the given id, if present.
func (t *Tree) Remove(id int) {
	it, ok := t.items[id]
	if !ok {
		return
	}
	delete(t.items, id)
	if t.root != nil {
		removeFrom(t.root, it)
	}
}

// Len reports the number of indexed items.
func (t *Tree) Len() int { return len(t.items) }

// Query returns every item whose bounds intersect window. Output-sensitive:
// subtrees whose bounds do not intersect window are pruned without
// descending, giving expected O(k + log n) behavior for k results among n
// items, per §4.4.
func (t *Tree) Query(window geometry.AABB) []Item {
	if t.root == nil {
		return nil
	}
	var out []Item
	queryNode(t.root, window, &out)
	return out
}

// PointQuery returns every item whose bounds contain p, expanded by
// tolerance in every direction (hit-testing, §4.4/§6).
func (t *Tree) PointQuery(p geometry.Point, tolerance int64) []Item {
	window := geometry.AABB{
		MinX: p.X - tolerance, MinY: p.Y - tolerance,
		MaxX: p.X + tolerance, MaxY: p.Y + tolerance,
	}
	return t.Query(window)
}

func queryNode(n *node, window geometry.AABB, out *[]Item) {
	if !n.bounds.Intersects(window) {
		return
	}
	if n.leaf() {
		for _, it := range n.items {
			if it.Bounds.Intersects(window) {
				*out = append(*out, it)
			}
		}
		return
	}
	for _, c := range n.children {
		queryNode(c, window, out)
	}
}

// strBuild implements Sort-Tile-Recursive bulk loading.
func strBuild(items []Item) *node {
	leaves := strLeaves(items)
	level := leaves
	for len(level) > 1 {
		level = strLevel(level)
	}
	return level[0]
}

func strLeaves(items []Item) []*node {
	n := len(items)
	leafCount := (n + maxLeafSize - 1) / maxLeafSize
	if leafCount < 1 {
		leafCount = 1
	}
	sliceCount := ceilSqrt(leafCount)

	sort.Slice(items, func(i, j int) bool { return centerX(items[i].Bounds) < centerX(items[j].Bounds) })

	perSlice := ceilDiv(n, sliceCount)
	var leaves []*node
	for s := 0; s < n; s += perSlice {
		end := s + perSlice
		if end > n {
			end = n
		}
		slice := items[s:end]
		sort.Slice(slice, func(i, j int) bool { return centerY(slice[i].Bounds) < centerY(slice[j].Bounds) })
		for i := 0; i < len(slice); i += maxLeafSize {
			j := i + maxLeafSize
			if j > len(slice) {
				j = len(slice)
			}
			leaf := &node{items: append([]Item{}, slice[i:j]...)}
			leaf.bounds = boundsOfItems(leaf.items)
			leaves = append(leaves, leaf)
		}
	}
	return leaves
}

// strLevel groups the given level's nodes into parents the same way
// strLeaves groups items, one level up the tree.
func strLevel(level []*node) []*node {
	n := len(level)
	groupCount := (n + maxLeafSize - 1) / maxLeafSize
	if groupCount <= 1 {
		parent := &node{children: append([]*node{}, level...)}
		parent.bounds = boundsOfNodes(parent.children)
		return []*node{parent}
	}
	sliceCount := ceilSqrt(groupCount)
	sort.Slice(level, func(i, j int) bool { return centerX(level[i].bounds) < centerX(level[j].bounds) })
	perSlice := ceilDiv(n, sliceCount)

	var parents []*node
	for s := 0; s < n; s += perSlice {
		end := s + perSlice
		if end > n {
			end = n
		}
		slice := level[s:end]
		sort.Slice(slice, func(i, j int) bool { return centerY(slice[i].bounds) < centerY(slice[j].bounds) })
		for i := 0; i < len(slice); i += maxLeafSize {
			j := i + maxLeafSize
			if j > len(slice) {
				j = len(slice)
			}
			parent := &node{children: append([]*node{}, slice[i:j]...)}
			parent.bounds = boundsOfNodes(parent.children)
			parents = append(parents, parent)
		}
	}
	return parents
}

func boundsOfItems(items []Item) geometry.AABB {
	b := geometry.EmptyAABB()
	for _, it := range items {
		b = b.Union(it.Bounds)
	}
	return b
}

func boundsOfNodes(nodes []*node) geometry.AABB {
	b := geometry.EmptyAABB()
	for _, n := range nodes {
		b = b.Union(n.bounds)
	}
	return b
}

func centerX(b geometry.AABB) int64 { return (b.MinX + b.MaxX) / 2 }
func centerY(b geometry.AABB) int64 { return (b.MinY + b.MaxY) / 2 }

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}

func ceilSqrt(n int) int {
	if n <= 1 {
		return 1
	}
	r := 1
	for r*r < n {
		r++
	}
	return r
}

// insert descends to the child whose bounds need the least enlargement to
// contain it, per the classic R-tree insertion heuristic.
func insert(n *node, it Item) {
	if n.leaf() {
		n.items = append(n.items, it)
		if len(n.items) > maxLeafSize*2 {
			// left as a soft cap: Insert is meant for light incremental use
			// between BulkLoad rebuilds, not sustained high-volume inserts.
			return
		}
		return
	}
	best := 0
	bestCost := enlargement(n.children[0].bounds, it.Bounds)
	for i := 1; i < len(n.children); i++ {
		cost := enlargement(n.children[i].bounds, it.Bounds)
		if cost < bestCost {
			bestCost = cost
			best = i
		}
	}
	insert(n.children[best], it)
	n.children[best].bounds = n.children[best].bounds.Union(it.Bounds)
}

func enlargement(b, add geometry.AABB) int64 {
	u := b.Union(add)
	return area(u) - area(b)
}

func area(b geometry.AABB) int64 {
	if b.Empty() {
		return 0
	}
	return b.Width() * b.Height()
}

// growBounds recomputes n's bounds from its direct items or children; insert()
// keeps every node below n current but never updates n itself.
func growBounds(n *node) {
	if n.leaf() {
		n.bounds = boundsOfItems(n.items)
		return
	}
	n.bounds = boundsOfNodes(n.children)
}

func removeFrom(n *node, it Item) bool {
	if n.leaf() {
		for i, cur := range n.items {
			if cur.ID == it.ID {
				n.items = append(n.items[:i], n.items[i+1:]...)
				n.bounds = boundsOfItems(n.items)
				return true
			}
		}
		return false
	}
	for _, c := range n.children {
		if c.bounds.Intersects(it.Bounds) && removeFrom(c, it) {
			n.bounds = boundsOfNodes(n.children)
			return true
		}
	}
	return false
}
