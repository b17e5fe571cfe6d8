// Package input implements the Input / Command Multiplexer (§4.9): it
// translates raw mouse, keyboard and touch events into the small set of
// camera/view commands the engine understands, independent of whatever
// windowing toolkit ultimately supplies the events.
package input

import "github.com/hailam/gdsview/internal/viewport"

// CommandKind enumerates the view-level commands the multiplexer emits.
type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandPan
	CommandZoomAt
	CommandFitToView
	CommandToggleGrid
	CommandHitTest
)

// Command is one translated input event, ready for the engine to apply.
type Command struct {
	Kind    CommandKind
	DX, DY  float64 // CommandPan: screen-space delta
	SX, SY  float64 // CommandZoomAt/CommandHitTest: screen-space origin
	Factor  float64 // CommandZoomAt: multiplicative scale factor
}

// DragState tracks an in-progress mouse or single-finger drag so successive
// MouseMove/TouchMove events become incremental Pan commands.
type DragState struct {
	active   bool
	lastX    float64
	lastY    float64
}

// BeginDrag starts tracking a drag gesture at the given screen position.
func (d *DragState) BeginDrag(x, y float64) {
	d.active = true
	d.lastX, d.lastY = x, y
}

// EndDrag stops tracking the current drag gesture.
func (d *DragState) EndDrag() {
	d.active = false
}

// Active reports whether a drag is currently tracked.
func (d *DragState) Active() bool { return d.active }

// Move consumes a pointer-move sample during an active drag and returns the
// equivalent pan command. Returns CommandNone if no drag is active.
func (d *DragState) Move(x, y float64) Command {
	if !d.active {
		return Command{Kind: CommandNone}
	}
	dx, dy := x-d.lastX, y-d.lastY
	d.lastX, d.lastY = x, y
	return Command{Kind: CommandPan, DX: dx, DY: dy}
}

// WheelZoomFactor converts a mouse wheel tick delta into a multiplicative
// zoom factor, matching the exponential feel of the reference client: each
// notch of delta scales by a constant ratio rather than a fixed amount.
func WheelZoomFactor(wheelDelta float64) float64 {
	const perNotchRatio = 1.1
	const notchSize = 120.0 // platform-conventional wheel delta per notch
	notches := wheelDelta / notchSize
	factor := 1.0
	for notches > 0 {
		factor *= perNotchRatio
		notches--
	}
	for notches < 0 {
		factor /= perNotchRatio
		notches++
	}
	return factor
}

// Key enumerates the keyboard shortcuts the multiplexer recognizes.
type Key int

const (
	KeyNone Key = iota
	KeyFitToView
	KeyToggleGrid
)

// FromKey maps a recognized key press directly to its command.
func FromKey(k Key) Command {
	switch k {
	case KeyFitToView:
		return Command{Kind: CommandFitToView}
	case KeyToggleGrid:
		return Command{Kind: CommandToggleGrid}
	default:
		return Command{Kind: CommandNone}
	}
}

// FromWheel builds a CommandZoomAt from a wheel event at the given cursor
// position.
func FromWheel(sx, sy, wheelDelta float64) Command {
	return Command{Kind: CommandZoomAt, SX: sx, SY: sy, Factor: WheelZoomFactor(wheelDelta)}
}

// Apply executes a Command against a camera, returning the updated camera.
// Non-camera commands (ToggleGrid, HitTest) are left for the engine to
// handle directly and are no-ops here.
func Apply(c viewport.Camera, cmd Command) viewport.Camera {
	switch cmd.Kind {
	case CommandPan:
		return c.Pan(cmd.DX, cmd.DY)
	case CommandZoomAt:
		return c.ZoomAt(cmd.SX, cmd.SY, cmd.Factor)
	default:
		return c
	}
}

// PinchZoomFactor converts a touch-pinch distance ratio directly into a
// zoom factor (no notch quantization, since pinch deltas are continuous).
func PinchZoomFactor(startDistance, currentDistance float64) float64 {
	if startDistance <= 0 {
		return 1
	}
	return currentDistance / startDistance
}
