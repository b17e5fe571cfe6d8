// Package viewport implements the Viewport / Camera and its world<->screen
// transform math (§4.7): p_screen = (p_world - T) * S, with a Y-flip since
// screen space grows downward while layout space grows upward.
package viewport

import "github.com/hailam/gdsview/internal/geometry"

// MinZoom and MaxZoom bound the scale factor the camera may reach, per §4.7.
const (
	MinZoom = 1e-6
	MaxZoom = 1e6
)

// Camera holds world-space translation T and scale S (device pixels per
// DBU), plus the screen dimensions used by FitToView and VisibleWorldBounds.
type Camera struct {
	TX, TY        float64
	Scale         float64
	ScreenW       float64
	ScreenH       float64
}

// New returns a camera at unit scale with the world origin at the screen's
// top-left corner.
func New(screenW, screenH float64) Camera {
	return Camera{Scale: 1, ScreenW: screenW, ScreenH: screenH}
}

// WorldToScreen maps a world point (DBU) to device pixels. Y is flipped so
// increasing world Y moves up the screen.
func (c Camera) WorldToScreen(p geometry.Point) (x, y float64) {
	x = (float64(p.X) - c.TX) * c.Scale
	y = -(float64(p.Y) - c.TY) * c.Scale
	return x, y
}

// ScreenToWorld is the inverse of WorldToScreen, used for hit-testing and
// zoom-at-cursor.
func (c Camera) ScreenToWorld(x, y float64) geometry.Point {
	if c.Scale == 0 {
		return geometry.Point{}
	}
	wx := x/c.Scale + c.TX
	wy := -y/c.Scale + c.TY
	return geometry.Point{X: int64(wx), Y: int64(wy)}
}

// Pan translates the camera by a screen-space delta, converted into world
// units at the current scale.
func (c Camera) Pan(dxScreen, dyScreen float64) Camera {
	if c.Scale == 0 {
		return c
	}
	c.TX -= dxScreen / c.Scale
	c.TY += dyScreen / c.Scale
	return c
}

// ZoomAt scales the camera by factor while holding the world point under
// screen position (sx,sy) fixed, clamped into [MinZoom,MaxZoom].
func (c Camera) ZoomAt(sx, sy, factor float64) Camera {
	before := c.ScreenToWorld(sx, sy)
	newScale := clamp(c.Scale*factor, MinZoom, MaxZoom)
	c.Scale = newScale
	after := c.ScreenToWorld(sx, sy)
	c.TX += float64(before.X - after.X)
	c.TY += float64(before.Y - after.Y)
	return c
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FitToView centers and scales the camera so bounds exactly fill the
// current screen dimensions, with the given fractional margin (0.05 = 5%
// padding on each side).
func (c Camera) FitToView(bounds geometry.AABB, margin float64) Camera {
	if bounds.Empty() || c.ScreenW <= 0 || c.ScreenH <= 0 {
		return c
	}
	w, h := float64(bounds.Width()), float64(bounds.Height())
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	pad := 1 + 2*margin
	sx := c.ScreenW / (w * pad)
	sy := c.ScreenH / (h * pad)
	scale := sx
	if sy < sx {
		scale = sy
	}
	c.Scale = clamp(scale, MinZoom, MaxZoom)
	// Place the bounds' center at the screen's center.
	c.TX = float64(bounds.MinX+bounds.MaxX)/2 - c.ScreenW/(2*c.Scale)
	c.TY = float64(bounds.MinY+bounds.MaxY)/2 + c.ScreenH/(2*c.Scale)
	return c
}

// VisibleWorldBounds returns the world-space AABB currently covered by the
// screen, used by the Batcher/Spatial Index as the culling window.
func (c Camera) VisibleWorldBounds() geometry.AABB {
	if c.Scale == 0 {
		return geometry.EmptyAABB()
	}
	tl := c.ScreenToWorld(0, 0)
	br := c.ScreenToWorld(c.ScreenW, c.ScreenH)
	return geometry.AABB{
		MinX: min64(tl.X, br.X), MinY: min64(tl.Y, br.Y),
		MaxX: max64(tl.X, br.X), MaxY: max64(tl.Y, br.Y),
	}
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
