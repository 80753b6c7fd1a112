package render

import (
	"image"
	"image/color"
)

// Op is one draw operation. Frames list ops back to front.
type Op interface {
	isOp()
}

// Image draws the captured canvas into Dst.
type Image struct {
	Dst image.Rectangle
}

// Fill paints Rect with a possibly translucent colour.
type Fill struct {
	Rect  image.Rectangle
	Color color.RGBA
}

// Stroke outlines Rect from the outside with a border Width pixels wide.
type Stroke struct {
	Rect  image.Rectangle
	Color color.RGBA
	Width int
}

// Edges returns the four border bands, top, bottom, left, right.
func (s Stroke) Edges() [4]image.Rectangle {
	w := max(1, s.Width)
	r := s.Rect
	o := r.Inset(-w)
	return [4]image.Rectangle{
		image.Rect(o.Min.X, o.Min.Y, o.Max.X, r.Min.Y),
		image.Rect(o.Min.X, r.Max.Y, o.Max.X, o.Max.Y),
		image.Rect(o.Min.X, r.Min.Y, r.Min.X, r.Max.Y),
		image.Rect(r.Max.X, r.Min.Y, o.Max.X, r.Max.Y),
	}
}

// Line is an axis-aligned guide from From to To.
type Line struct {
	From, To image.Point
	Color    color.RGBA
	Width    int
}

// Bounds returns the rectangle the line covers, centred on its axis.
func (l Line) Bounds() image.Rectangle {
	w := max(1, l.Width)
	lo := w / 2
	if l.From.Y == l.To.Y {
		return image.Rect(l.From.X, l.From.Y-lo, l.To.X, l.From.Y-lo+w).Canon()
	}
	return image.Rect(l.From.X-lo, l.From.Y, l.From.X-lo+w, l.To.Y).Canon()
}

// Magnifier draws Src from the canvas scaled up to fill Dst.
type Magnifier struct {
	Dst  image.Rectangle
	Src  image.Rectangle
	Zoom int
}

func (Image) isOp()     {}
func (Fill) isOp()      {}
func (Stroke) isOp()    {}
func (Line) isOp()      {}
func (Magnifier) isOp() {}

// Frame is the ordered draw list for one tick, in capture-space pixels.
type Frame struct {
	Size image.Point
	Ops  []Op
}

// Surface executes frames on a host. Release is called once when the session
// ends.
type Surface interface {
	Submit(f Frame) error
	Present() error
	Release()
}
