package viewport

import (
	"testing"

	"github.com/hailam/gdsview/internal/geometry"
	"github.com/stretchr/testify/require"
)

func TestWorldToScreen_YFlip(t *testing.T) {
	c := New(800, 600)
	x, y := c.WorldToScreen(geometry.Point{X: 10, Y: 10})
	require.Equal(t, 10.0, x)
	require.Equal(t, -10.0, y)
}

func TestScreenToWorld_RoundTrip(t *testing.T) {
	c := New(800, 600)
	c.Scale = 2
	c.TX, c.TY = 5, 5
	p := geometry.Point{X: 123, Y: -45}
	x, y := c.WorldToScreen(p)
	back := c.ScreenToWorld(x, y)
	require.Equal(t, p, back)
}

func TestPan_MovesWorldUnderFixedScreenPoint(t *testing.T) {
	c := New(800, 600)
	c.Scale = 2
	before := c.ScreenToWorld(400, 300)
	c = c.Pan(20, 0)
	after := c.ScreenToWorld(400, 300)
	require.NotEqual(t, before, after)
	require.Equal(t, before.X-10, after.X)
}

func TestZoomAt_KeepsCursorWorldPointFixed(t *testing.T) {
	c := New(800, 600)
	c.Scale = 1
	c.TX, c.TY = 0, 0
	cursorWorldBefore := c.ScreenToWorld(400, 300)
	c2 := c.ZoomAt(400, 300, 2.0)
	cursorWorldAfter := c2.ScreenToWorld(400, 300)
	require.InDelta(t, float64(cursorWorldBefore.X), float64(cursorWorldAfter.X), 1)
	require.InDelta(t, float64(cursorWorldBefore.Y), float64(cursorWorldAfter.Y), 1)
	require.Equal(t, 2.0, c2.Scale)
}

func TestZoomAt_ClampsToMinMax(t *testing.T) {
	c := New(800, 600)
	c.Scale = MinZoom
	c2 := c.ZoomAt(0, 0, 0.0001)
	require.Equal(t, MinZoom, c2.Scale)

	c.Scale = MaxZoom
	c3 := c.ZoomAt(0, 0, 1e9)
	require.Equal(t, MaxZoom, c3.Scale)
}

func TestFitToView_FillsScreenWithMargin(t *testing.T) {
	c := New(1000, 500)
	bounds := geometry.AABB{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	c2 := c.FitToView(bounds, 0.1)
	require.Greater(t, c2.Scale, 0.0)

	minScreenX, minScreenY := c2.WorldToScreen(geometry.Point{X: 0, Y: 100})
	maxScreenX, maxScreenY := c2.WorldToScreen(geometry.Point{X: 100, Y: 0})
	require.Greater(t, minScreenX, 0.0)
	require.Greater(t, minScreenY, 0.0)
	require.Less(t, maxScreenX, 1000.0)
	require.Less(t, maxScreenY, 500.0)
}

func TestFitToView_EmptyBoundsNoOp(t *testing.T) {
	c := New(800, 600)
	c2 := c.FitToView(geometry.EmptyAABB(), 0.1)
	require.Equal(t, c, c2)
}

func TestVisibleWorldBounds_MatchesScreenCorners(t *testing.T) {
	c := New(800, 600)
	c.Scale = 1
	b := c.VisibleWorldBounds()
	require.False(t, b.Empty())
	require.Equal(t, int64(800), b.Width())
	require.Equal(t, int64(600), b.Height())
}
