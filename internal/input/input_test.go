package input

import (
	"testing"

	"github.com/hailam/gdsview/internal/viewport"
	"github.com/stretchr/testify/require"
)

func TestDragState_ProducesIncrementalPan(t *testing.T) {
	var d DragState
	require.False(t, d.Active())
	d.BeginDrag(100, 100)
	require.True(t, d.Active())

	cmd := d.Move(110, 95)
	require.Equal(t, CommandPan, cmd.Kind)
	require.Equal(t, 10.0, cmd.DX)
	require.Equal(t, -5.0, cmd.DY)

	cmd2 := d.Move(120, 95)
	require.Equal(t, 10.0, cmd2.DX)
	require.Equal(t, 0.0, cmd2.DY)

	d.EndDrag()
	require.False(t, d.Active())
	require.Equal(t, CommandNone, d.Move(200, 200).Kind)
}

func TestWheelZoomFactor_PositiveGreaterThanOne(t *testing.T) {
	require.Greater(t, WheelZoomFactor(120), 1.0)
	require.Less(t, WheelZoomFactor(-120), 1.0)
	require.Equal(t, 1.0, WheelZoomFactor(0))
}

func TestFromKey(t *testing.T) {
	require.Equal(t, CommandFitToView, FromKey(KeyFitToView).Kind)
	require.Equal(t, CommandToggleGrid, FromKey(KeyToggleGrid).Kind)
	require.Equal(t, CommandNone, FromKey(KeyNone).Kind)
}

func TestApply_PanAndZoom(t *testing.T) {
	c := viewport.New(800, 600)
	c.Scale = 1
	c2 := Apply(c, Command{Kind: CommandPan, DX: 10, DY: 0})
	require.NotEqual(t, c.TX, c2.TX)

	c3 := Apply(c, FromWheel(400, 300, 120))
	require.Greater(t, c3.Scale, c.Scale)
}

func TestPinchZoomFactor(t *testing.T) {
	require.Equal(t, 2.0, PinchZoomFactor(50, 100))
	require.Equal(t, 1.0, PinchZoomFactor(0, 100))
}
