package selection

import (
	"errors"
	"image"
)

// ErrInvalidTransition is returned when an operation is not valid in the
// current phase. The model is left unchanged.
var ErrInvalidTransition = errors.New("invalid transition")

// Phase is the interaction phase of a selection.
type Phase int

const (
	Idle Phase = iota
	Dragging
	Adjusting
	Ready
	Confirmed
	Cancelled
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Adjusting:
		return "adjusting"
	case Ready:
		return "ready"
	case Confirmed:
		return "confirmed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase ends the session.
func (p Phase) Terminal() bool { return p == Confirmed || p == Cancelled }

// Handle identifies the control point grabbed during Adjusting.
type Handle int

const (
	HandleNone Handle = iota
	HandleTopLeft
	HandleTop
	HandleTopRight
	HandleRight
	HandleBottomRight
	HandleBottom
	HandleBottomLeft
	HandleLeft
	HandleMove
)

// ResizeHandles lists the eight border handles in clockwise order.
var ResizeHandles = []Handle{
	HandleTopLeft, HandleTop, HandleTopRight, HandleRight,
	HandleBottomRight, HandleBottom, HandleBottomLeft, HandleLeft,
}

func (h Handle) String() string {
	switch h {
	case HandleTopLeft:
		return "top-left"
	case HandleTop:
		return "top"
	case HandleTopRight:
		return "top-right"
	case HandleRight:
		return "right"
	case HandleBottomRight:
		return "bottom-right"
	case HandleBottom:
		return "bottom"
	case HandleBottomLeft:
		return "bottom-left"
	case HandleLeft:
		return "left"
	case HandleMove:
		return "move"
	default:
		return "none"
	}
}

// drivesX and drivesY report which axes a handle controls.
func (h Handle) drivesX() bool {
	switch h {
	case HandleTop, HandleBottom, HandleNone:
		return false
	}
	return true
}

func (h Handle) drivesY() bool {
	switch h {
	case HandleLeft, HandleRight, HandleNone:
		return false
	}
	return true
}

// Point returns the position of handle h on r.
func (h Handle) Point(r image.Rectangle) image.Point {
	midX := (r.Min.X + r.Max.X) / 2
	midY := (r.Min.Y + r.Max.Y) / 2
	switch h {
	case HandleTopLeft:
		return r.Min
	case HandleTop:
		return image.Pt(midX, r.Min.Y)
	case HandleTopRight:
		return image.Pt(r.Max.X, r.Min.Y)
	case HandleRight:
		return image.Pt(r.Max.X, midY)
	case HandleBottomRight:
		return r.Max
	case HandleBottom:
		return image.Pt(midX, r.Max.Y)
	case HandleBottomLeft:
		return image.Pt(r.Min.X, r.Max.Y)
	case HandleLeft:
		return image.Pt(r.Min.X, midY)
	default:
		return image.Pt(midX, midY)
	}
}

// opposite returns the corner that stays fixed while h is dragged.
func (h Handle) opposite(r image.Rectangle) image.Point {
	switch h {
	case HandleTopLeft, HandleTop, HandleLeft:
		return r.Max
	case HandleTopRight:
		return image.Pt(r.Min.X, r.Max.Y)
	case HandleBottomLeft:
		return image.Pt(r.Max.X, r.Min.Y)
	default:
		return r.Min
	}
}

// NudgeMode selects how arrow keys change a Ready selection.
type NudgeMode int

const (
	// NudgeMove shifts the whole rectangle.
	NudgeMove NudgeMode = iota
	// NudgeResize moves the bottom/right edges.
	NudgeResize
	// NudgeInverseResize moves the top/left edges.
	NudgeInverseResize
)

func (m NudgeMode) String() string {
	switch m {
	case NudgeResize:
		return "resize"
	case NudgeInverseResize:
		return "inverse-resize"
	default:
		return "move"
	}
}

// ParseNudgeMode maps a configuration value to a mode, defaulting to move.
func ParseNudgeMode(s string) NudgeMode {
	switch s {
	case "resize":
		return NudgeResize
	case "inverse-resize", "inverseresize", "inverse_resize":
		return NudgeInverseResize
	default:
		return NudgeMove
	}
}

// Snapshot is an immutable copy of the model state handed to the render graph.
type Snapshot struct {
	Phase        Phase
	Handle       Handle
	Anchor       image.Point
	Cursor       image.Point
	Rect         image.Rectangle
	AspectLocked bool
	Aspect       float64
	Frozen       bool
	Bounds       image.Rectangle
}

// HasArea reports whether the snapshot's rectangle is non-degenerate.
func (s Snapshot) HasArea() bool { return !s.Rect.Empty() }
