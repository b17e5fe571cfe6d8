// Package lod implements the Level-of-Detail Controller (§4.6): it owns the
// current scene-graph reference-expansion depth and, from an exponential
// moving average of visible polygon count against the polygon budget,
// proposes one more or one fewer level of hierarchy each frame. A candidate
// change only commits once both a minimum dwell time has passed and the
// zoom has moved significantly since the last commit, so pan/zoom within a
// stable regime never triggers a re-batch.
package lod

import "time"

// MaxDepth is the deepest scene-graph recursion the controller will commit
// to, per §4.6's D ∈ [0,10].
const MaxDepth = 10

// Config tunes the controller's averaging, utilization bands and commit
// gating.
type Config struct {
	// AvgWeight is the EMA weight kept on the previous average (§4.6:
	// avg_visible = 0.9*avg_visible + 0.1*visible_polygon_count).
	AvgWeight float64
	// LowUtilization/HighUtilization are the avg_visible/budget ratios
	// below/above which the controller proposes D+1/D-1.
	LowUtilization  float64
	HighUtilization float64
	// MinCommitInterval is the minimum dwell time between commits.
	MinCommitInterval time.Duration
	// ZoomRatioLow/ZoomRatioHigh are the zoom-since-last-commit ratios that
	// must also be crossed for a candidate depth change to commit.
	ZoomRatioLow  float64
	ZoomRatioHigh float64
}

// DefaultConfig matches the reference tuning in §4.6.
func DefaultConfig() Config {
	return Config{
		AvgWeight:         0.9,
		LowUtilization:    0.30,
		HighUtilization:   0.90,
		MinCommitInterval: time.Second,
		ZoomRatioLow:      0.2,
		ZoomRatioHigh:     2.0,
	}
}

// Result is returned by Update: the depth in force this frame, and whether
// this call just committed a change the caller must re-batch at.
type Result struct {
	Depth     int
	Committed bool
}

// Controller holds the running visible-polygon average and the committed
// depth/commit bookkeeping across frames.
type Controller struct {
	cfg        Config
	avgVisible float64
	primed     bool
	depth      int

	lastCommit       time.Time
	zoomAtLastCommit float64
}

// New constructs a Controller starting at MaxDepth with no commit history.
func New(cfg Config) *Controller {
	return &Controller{cfg: cfg, depth: MaxDepth}
}

// Depth returns the currently committed reference-expansion depth.
func (c *Controller) Depth() int { return c.depth }

// AvgVisible returns the smoothed visible-polygon count, for diagnostics
// and the metrics' budget_utilization figure.
func (c *Controller) AvgVisible() float64 { return c.avgVisible }

// Thresholds returns the utilization ratios that would propose a depth
// increase (low) or decrease (high) on the next Update call, surfaced
// through get_metrics as next_lod_thresholds_low/high.
func (c *Controller) Thresholds() (low, high float64) {
	return c.cfg.LowUtilization, c.cfg.HighUtilization
}

// Update feeds one window query's (visible_polygon_count, visible_budget,
// current_zoom) into the controller per §4.6's policy. It returns the depth
// to render at this frame and whether a new commit just happened, signaling
// the caller to invalidate and rebuild the Batcher at the new depth. Hidden
// layers must already be excluded from visiblePolygons by the caller.
func (c *Controller) Update(now time.Time, visiblePolygons, budget int, zoom float64) Result {
	if budget <= 0 {
		budget = 1
	}
	visible := float64(visiblePolygons)
	if !c.primed {
		c.avgVisible = visible
		c.primed = true
	} else {
		c.avgVisible = c.cfg.AvgWeight*c.avgVisible + (1-c.cfg.AvgWeight)*visible
	}

	utilization := c.avgVisible / float64(budget)
	candidate := c.depth
	switch {
	case utilization < c.cfg.LowUtilization:
		candidate++
	case utilization > c.cfg.HighUtilization:
		candidate--
	}
	candidate = ClampDepth(candidate)

	if candidate == c.depth {
		return Result{Depth: c.depth}
	}

	// A zero-value lastCommit/zoomAtLastCommit (the controller's initial
	// state) makes both gates trivially true, so the very first candidate
	// change commits without an artificial bootstrap case.
	dwelled := now.Sub(c.lastCommit) >= c.cfg.MinCommitInterval
	zoomCrossed := zoom < c.cfg.ZoomRatioLow*c.zoomAtLastCommit || zoom > c.cfg.ZoomRatioHigh*c.zoomAtLastCommit
	if dwelled && zoomCrossed {
		c.depth = candidate
		c.lastCommit = now
		c.zoomAtLastCommit = zoom
		return Result{Depth: c.depth, Committed: true}
	}
	return Result{Depth: c.depth}
}

// Reset returns the controller to its initial state at MaxDepth, as when a
// new Document is loaded.
func (c *Controller) Reset() {
	c.avgVisible = 0
	c.primed = false
	c.depth = MaxDepth
	c.lastCommit = time.Time{}
	c.zoomAtLastCommit = 0
}

// ClampDepth bounds a requested traversal depth into [0, MaxDepth].
func ClampDepth(depth int) int {
	if depth < 0 {
		return 0
	}
	if depth > MaxDepth {
		return MaxDepth
	}
	return depth
}
