package controller

// #region imports
import (
	"image"
)

// #endregion

// #region kind

// Kind identifies the input/capture backend. The Waiter scales its poll
// interval by the backend's latency class.
type Kind string

const (
	KindDesktop      Kind = "desktop"
	KindMirrorBridge Kind = "mirror_bridge"
	KindRemoteBridge Kind = "remote_bridge"
)

// IntervalScale returns the poll-interval multiplier for the backend.
// Mirror and remote bridges capture slower than a local desktop hook.
func (k Kind) IntervalScale() float64 {
	switch k {
	case KindMirrorBridge:
		return 1.5
	case KindRemoteBridge:
		return 2.0
	default:
		return 1.0
	}
}

// #endregion kind

// #region box

// Box is a pixel-space bounding box (x1, y1, x2, y2) in frame coordinates.
type Box struct {
	X1, Y1, X2, Y2 float64
}

// Center returns the box midpoint.
func (b Box) Center() (float64, float64) {
	return 0.5 * (b.X1 + b.X2), 0.5 * (b.Y1 + b.Y2)
}

// CenterY returns the vertical midpoint, used for bottom-most ordering.
func (b Box) CenterY() float64 {
	return 0.5 * (b.Y1 + b.Y2)
}

// Width returns the box width.
func (b Box) Width() float64 { return b.X2 - b.X1 }

// Height returns the box height.
func (b Box) Height() float64 { return b.Y2 - b.Y1 }

// Inside reports whether b sits fully inside outer, with pad pixels of slack.
func (b Box) Inside(outer Box, pad float64) bool {
	return b.X1 >= outer.X1-pad &&
		b.Y1 >= outer.Y1-pad &&
		b.X2 <= outer.X2+pad &&
		b.Y2 <= outer.Y2+pad
}

// ShiftY returns the box moved vertically by dy.
func (b Box) ShiftY(dy float64) Box {
	return Box{X1: b.X1, Y1: b.Y1 + dy, X2: b.X2, Y2: b.Y2 + dy}
}

// #endregion box

// #region interface

// Controller is the input/capture boundary. Implementations wrap a desktop
// hook, a device-mirroring bridge, or a remote-device bridge; all are
// plug-compatible. Clicks are ordered with respect to subsequent captures:
// a capture started after Click observes post-click state once the UI settles.
type Controller interface {
	// Capture grabs the current frame image. Blocks ~100ms typical.
	Capture() (image.Image, error)

	// Click taps the center of the box. Backends add small jitter and delay.
	Click(box Box, clicks int)

	// Scroll drags from the anchor by dy pixels (negative = content up).
	Scroll(anchor Box, dy int)

	// Kind reports the backend for per-backend tuning.
	Kind() Kind
}

// #endregion interface
