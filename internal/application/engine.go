// Package application is the composition root: Engine wires the format
// loaders, the scene-graph traversal, the spatial index, the LOD
// controller, the camera and the overlay/minimap together behind the small
// set of operations a UI shell calls (§5, §6).
package application

import (
	"context"
	"fmt"
	"image/color"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hailam/gdsview/internal/batch"
	"github.com/hailam/gdsview/internal/geometry"
	"github.com/hailam/gdsview/internal/lod"
	"github.com/hailam/gdsview/internal/minimap"
	"github.com/hailam/gdsview/internal/overlay"
	"github.com/hailam/gdsview/internal/ports"
	"github.com/hailam/gdsview/internal/spatial"
	"github.com/hailam/gdsview/internal/viewport"
)

// Config tunes the engine's traversal and LOD behavior, constructed once at
// startup rather than threaded through every call.
type Config struct {
	Budget        batch.Budget
	LOD           lod.Config
	ScreenW       float64
	ScreenH       float64
	MinimapW      float64
	MinimapH      float64
}

// DefaultConfig matches the reference tuning used throughout §4.
func DefaultConfig() Config {
	return Config{
		Budget:   batch.DefaultBudget(),
		LOD:      lod.DefaultConfig(),
		ScreenW:  1280,
		ScreenH:  800,
		MinimapW: 200,
		MinimapH: 150,
	}
}

// Engine is the running state of one open document: the parsed geometry,
// the camera, the spatial index, the LOD controller and the minimap.
type Engine struct {
	cfg     Config
	factory ports.LoaderFactory

	doc           *geometry.Document
	stats         ports.Stats
	camera        viewport.Camera
	index         *spatial.Tree
	lodCtrl       *lod.Controller
	mm            *minimap.Minimap
	warnings      []geometry.Warning
	lastTraversal []batch.Batch

	gridEnabled     bool
	lastFPS         float64
	lastVisibleCount int
}

// NewEngine constructs an Engine against the given loader factory (normally
// the self-registering one in internal/adapters/factory).
func NewEngine(factory ports.LoaderFactory, cfg Config) *Engine {
	return &Engine{
		cfg:         cfg,
		factory:     factory,
		camera:      viewport.New(cfg.ScreenW, cfg.ScreenH),
		lodCtrl:     lod.New(cfg.LOD),
		gridEnabled: true,
	}
}

// Load parses data (inferring format from filename's extension), replaces
// the currently loaded document, rebuilds the spatial index and minimap,
// and fits the camera to the new document's bounds.
func (e *Engine) Load(ctx context.Context, data []byte, filename string, onProgress ports.ProgressFunc) error {
	format, err := formatFromExtension(filename)
	if err != nil {
		return err
	}
	loader, err := e.factory.For(format)
	if err != nil {
		return fmt.Errorf("no loader for '%s': %w", filename, err)
	}

	doc, stats, warnings, err := loader.Load(ctx, data, filename, onProgress)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", filename, err)
	}

	res, err := batch.Traverse(ctx, doc, nil, e.cfg.Budget)
	if err != nil {
		return fmt.Errorf("failed to traverse scene graph for %s: %w", filename, err)
	}

	e.doc = doc
	e.stats = stats
	e.warnings = warnings
	e.lastTraversal = res.Batches
	e.index = batch.BuildIndex(res)
	e.lodCtrl.Reset()
	e.camera = viewport.New(e.cfg.ScreenW, e.cfg.ScreenH).FitToView(doc.Bounds, 0.05)
	e.mm = minimap.New(doc, e.cfg.MinimapW, e.cfg.MinimapH)
	return nil
}

// formatFromExtension maps a loaded filename's extension to a ports.Format,
// the load-time mirror of the teacher's output-extension dispatch.
func formatFromExtension(name string) (ports.Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch ext {
	case "gds", "gds2", "gdsii":
		return ports.FormatGDSII, nil
	case "dxf":
		return ports.FormatDXF, nil
	default:
		return "", fmt.Errorf("unrecognized file extension '%s'", ext)
	}
}

// Render submits every batch currently visible (intersecting the camera's
// world-space window, on a visible layer) to dl, then flushes the frame. It
// feeds the visible count to the LOD Controller and, if that commits a new
// depth, rebuilds the Batcher and Spatial Index before submitting, per
// §4.6: a significant zoom change triggers a re-batch at the new depth.
func (e *Engine) Render(dl ports.DrawList, fps float64) (overlay.Metrics, error) {
	if e.doc == nil {
		return overlay.Metrics{}, fmt.Errorf("no document loaded")
	}

	visible := e.index.Query(e.camera.VisibleWorldBounds())
	visibleCount := e.countVisible(visible)

	budget := e.cfg.Budget.MaxPolygons
	res := e.lodCtrl.Update(time.Now(), visibleCount, budget, e.camera.Scale)
	if res.Committed {
		if err := e.rebatch(res.Depth); err != nil {
			return overlay.Metrics{}, err
		}
		visible = e.index.Query(e.camera.VisibleWorldBounds())
		visibleCount = e.countVisible(visible)
	}

	// Item IDs are the batches' traversal positions, so sorting by ID
	// submits in document order.
	sort.Slice(visible, func(i, j int) bool { return visible[i].ID < visible[j].ID })

	count := 0
	for _, item := range visible {
		idx, ok := item.Payload.(int)
		if !ok {
			continue
		}
		// Batches are owned by the traversal result captured at Load/commit
		// time; BuildIndex stores each batch's slice position so it can be
		// recovered here without a second copy of the geometry.
		b := e.batchAt(idx)
		if b == nil {
			continue
		}
		layer, ok := e.doc.Layers[b.Layer]
		if ok && !layer.Visible {
			continue
		}
		e.submitBatch(dl, *b, layer)
		count++
	}
	dl.Flush()

	e.lastFPS = fps
	e.lastVisibleCount = count
	return e.currentMetrics(fps, count), nil
}

// countVisible tallies the batches in items whose layer is visible; hidden
// layers are excluded from the count fed to the LOD Controller (§4.6).
func (e *Engine) countVisible(items []spatial.Item) int {
	count := 0
	for _, item := range items {
		idx, ok := item.Payload.(int)
		if !ok {
			continue
		}
		b := e.batchAt(idx)
		if b == nil {
			continue
		}
		if layer, ok := e.doc.Layers[b.Layer]; ok && !layer.Visible {
			continue
		}
		count++
	}
	return count
}

// rebatch re-traverses the scene graph at depth and rebuilds the Spatial
// Index from the result, discarding batches from instances outside the new
// depth and materializing any newly reachable ones.
func (e *Engine) rebatch(depth int) error {
	budget := e.cfg.Budget
	budget.MaxDepth = depth
	res, err := batch.Traverse(context.Background(), e.doc, nil, budget)
	if err != nil {
		return fmt.Errorf("failed to rebuild batcher at depth %d: %w", depth, err)
	}
	e.lastTraversal = res.Batches
	e.index = batch.BuildIndex(res)
	return nil
}

func (e *Engine) submitBatch(dl ports.DrawList, b batch.Batch, layer *geometry.Layer) {
	fill := geometry.DefaultLayerColor(b.Layer)
	if layer != nil {
		fill = layer.Color
	}
	pts := b.Polygon.Points
	screen := make([]ports.Vertex, 0, len(pts))
	for _, p := range pts {
		x, y := e.camera.WorldToScreen(b.Transform.Apply(p))
		screen = append(screen, ports.Vertex{X: x, Y: y})
	}
	dl.FillPolygon(layerName(layer, b.Layer), screen, fill)
}

func layerName(l *geometry.Layer, id geometry.LayerID) string {
	if l != nil && l.Name != "" {
		return l.Name
	}
	return fmt.Sprintf("%d/%d", id.Layer, id.Datatype)
}

// currentMetrics assembles the get_metrics() surface (§6): fps,
// visible/total polygons, budget utilization and the LOD Controller's
// current depth and next commit thresholds, plus the live zoom level.
func (e *Engine) currentMetrics(fps float64, visiblePolygons int) overlay.Metrics {
	budget := e.cfg.Budget.MaxPolygons
	utilization := 0.0
	if budget > 0 {
		utilization = e.lodCtrl.AvgVisible() / float64(budget)
	}
	low, high := e.lodCtrl.Thresholds()
	return overlay.Metrics{
		FPS:                  fps,
		VisiblePolygons:      visiblePolygons,
		TotalPolygons:        e.stats.TotalPolygons,
		PolygonBudget:        budget,
		BudgetUtilization:    utilization,
		CurrentDepth:         e.lodCtrl.Depth(),
		ZoomLevel:            e.camera.Scale,
		NextLODThresholdLow:  low,
		NextLODThresholdHigh: high,
	}
}

// GetMetrics returns the metrics as of the most recently rendered frame,
// without submitting a frame or re-querying the index (the get_metrics()
// viewport query of §6, independent of render()).
func (e *Engine) GetMetrics() overlay.Metrics {
	return e.currentMetrics(e.lastFPS, e.lastVisibleCount)
}

func (e *Engine) batchAt(idx int) *batch.Batch {
	if e.lastTraversal == nil || idx < 0 || idx >= len(e.lastTraversal) {
		return nil
	}
	return &e.lastTraversal[idx]
}

// GetViewportBounds returns the world-space window currently visible.
func (e *Engine) GetViewportBounds() geometry.AABB {
	return e.camera.VisibleWorldBounds()
}

// GetStats returns the load-time statistics of the current document.
func (e *Engine) GetStats() ports.Stats { return e.stats }

// Warnings returns the non-fatal conditions accumulated while loading.
func (e *Engine) Warnings() []geometry.Warning { return e.warnings }

// HitTest returns the batches under a screen-space point in document order;
// nearest-first is not guaranteed, and callers needing topmost-wins should
// take the last result (the order Render submits batches in).
func (e *Engine) HitTest(screenX, screenY float64) []batch.Batch {
	if e.doc == nil || e.index == nil {
		return nil
	}
	p := e.camera.ScreenToWorld(screenX, screenY)
	items := e.index.PointQuery(p, 0)
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	out := make([]batch.Batch, 0, len(items))
	for _, it := range items {
		idx, ok := it.Payload.(int)
		if !ok {
			continue
		}
		if b := e.batchAt(idx); b != nil {
			out = append(out, *b)
		}
	}
	return out
}

// Pan translates the camera by a screen-space delta.
func (e *Engine) Pan(dx, dy float64) { e.camera = e.camera.Pan(dx, dy) }

// ZoomAt scales the camera about a screen-space point.
func (e *Engine) ZoomAt(sx, sy, factor float64) { e.camera = e.camera.ZoomAt(sx, sy, factor) }

// FitToView recenters and rescales the camera to the current document's
// bounds.
func (e *Engine) FitToView() {
	if e.doc == nil {
		return
	}
	e.camera = e.camera.FitToView(e.doc.Bounds, 0.05)
}

// SetLayerVisible toggles a layer's visibility on the primary (not
// minimap) document.
func (e *Engine) SetLayerVisible(id geometry.LayerID, visible bool) {
	if e.doc == nil {
		return
	}
	if l, ok := e.doc.Layers[id]; ok {
		l.Visible = visible
	}
}

// Minimap returns the engine's minimap, or nil before the first Load.
func (e *Engine) Minimap() *minimap.Minimap { return e.mm }

// Camera returns the current camera state, for overlay rendering.
func (e *Engine) Camera() viewport.Camera { return e.camera }

// SetLayerColor sets a layer's fill color, creating the layer entry (visible
// by default, per the builder's create-if-absent convention) if the
// document hasn't seen that layer/datatype pair yet.
func (e *Engine) SetLayerColor(id geometry.LayerID, c color.RGBA) {
	if e.doc == nil {
		return
	}
	l, ok := e.doc.Layers[id]
	if !ok {
		l = &geometry.Layer{ID: id, Visible: true}
		e.doc.Layers[id] = l
	}
	l.Color = c
}

// ToggleGrid flips the grid overlay on/off and returns the new state.
func (e *Engine) ToggleGrid() bool {
	e.gridEnabled = !e.gridEnabled
	return e.gridEnabled
}

// GridEnabled reports whether the grid overlay is currently shown.
func (e *Engine) GridEnabled() bool { return e.gridEnabled }

// ViewportState is the persisted camera position/zoom accepted by
// set_viewport_state and returned by get_viewport_state (§6).
type ViewportState struct {
	TX    float64
	TY    float64
	Scale float64
}

// SetViewportState restores a previously captured camera position, as on
// document reopen.
func (e *Engine) SetViewportState(state ViewportState) {
	e.camera.TX = state.TX
	e.camera.TY = state.TY
	e.camera.Scale = state.Scale
}

// GetViewportState captures the camera position for later persistence.
func (e *Engine) GetViewportState() ViewportState {
	return ViewportState{TX: e.camera.TX, TY: e.camera.TY, Scale: e.camera.Scale}
}

// LayerState is one layer's persisted visibility/color, accepted by
// set_layer_state and returned by get_layer_state (§6).
type LayerState struct {
	ID      geometry.LayerID
	Visible bool
	Color   color.RGBA
}

// SetLayerState restores a batch of layers' visibility and color, creating
// any layer entries the document hasn't seen yet.
func (e *Engine) SetLayerState(states []LayerState) {
	if e.doc == nil {
		return
	}
	for _, s := range states {
		l, ok := e.doc.Layers[s.ID]
		if !ok {
			l = &geometry.Layer{ID: s.ID}
			e.doc.Layers[s.ID] = l
		}
		l.Visible = s.Visible
		l.Color = s.Color
	}
}

// GetLayerState captures every layer's visibility/color for persistence.
func (e *Engine) GetLayerState() []LayerState {
	if e.doc == nil {
		return nil
	}
	out := make([]LayerState, 0, len(e.doc.Layers))
	for id, l := range e.doc.Layers {
		out = append(out, LayerState{ID: id, Visible: l.Visible, Color: l.Color})
	}
	return out
}
