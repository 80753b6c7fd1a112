package render

import (
	"image"
	"image/color"
	"math"

	"screen-cleave/src/selection"
)

// Style holds the overlay colours and logical sizes.
type Style struct {
	Dim          color.RGBA
	Border       color.RGBA
	BorderWidth  float64
	HandleSize   float64
	Guide        color.RGBA
	MagnifierGap float64
}

func DefaultStyle() Style {
	return Style{
		Dim:          color.RGBA{A: 128},
		Border:       color.RGBA{R: 255, G: 255, B: 255, A: 255},
		BorderWidth:  2,
		HandleSize:   8,
		Guide:        color.RGBA{R: 255, G: 255, B: 255, A: 160},
		MagnifierGap: 16,
	}
}

type MagnifierConfig struct {
	Enabled bool
	// Size is the panel side in logical pixels.
	Size float64
	Zoom int
}

// Scene is everything the graph needs for one frame. It is a value; the graph
// never reaches back into the session.
type Scene struct {
	Bounds     image.Rectangle
	Selection  selection.Snapshot
	Pointer    image.Point
	HasPointer bool
	// Scale is the device pixel ratio under the pointer; it sizes the
	// crosshair and the magnifier.
	Scale float64
	// SelectionScale sizes the border and handles; zero means Scale.
	SelectionScale float64
	Magnifier      MagnifierConfig
	Style          Style
}

// Build produces the frame for s. It has no side effects.
func Build(s Scene) Frame {
	if s.Scale <= 0 {
		s.Scale = 1
	}
	if s.SelectionScale <= 0 {
		s.SelectionScale = s.Scale
	}
	f := Frame{Size: s.Bounds.Size()}
	sel := s.Selection
	r := sel.Rect.Intersect(s.Bounds)
	has := !r.Empty() && !sel.Phase.Terminal()

	f.Ops = append(f.Ops, Image{Dst: s.Bounds})

	if has {
		f.Ops = append(f.Ops, dimAround(s.Bounds, r, s.Style.Dim)...)
		f.Ops = append(f.Ops, Stroke{Rect: r, Color: s.Style.Border, Width: px(s.Style.BorderWidth, s.SelectionScale)})
	} else {
		f.Ops = append(f.Ops, Fill{Rect: s.Bounds, Color: s.Style.Dim})
	}

	if has && (sel.Phase == selection.Ready || sel.Phase == selection.Adjusting) {
		size := px(s.Style.HandleSize, s.SelectionScale)
		for _, h := range selection.ResizeHandles {
			c := h.Point(r)
			sq := image.Rect(c.X-size/2, c.Y-size/2, c.X-size/2+size, c.Y-size/2+size)
			f.Ops = append(f.Ops, Fill{Rect: sq, Color: s.Style.Border})
		}
	}

	if sel.Phase == selection.Dragging || sel.Phase == selection.Adjusting {
		at := sel.Cursor
		if sel.Phase == selection.Adjusting && sel.Handle == selection.HandleMove && s.HasPointer {
			at = s.Pointer
		}
		f.Ops = append(f.Ops, crosshair(s.Bounds, at, s.Style.Guide, px(1, s.Scale))...)
	}

	if sel.Phase == selection.Idle && s.Magnifier.Enabled && !sel.Frozen && s.HasPointer {
		f.Ops = append(f.Ops, magnifier(s)...)
	}
	return f
}

// px converts a logical length to device pixels, never below one.
func px(logical, scale float64) int {
	return max(1, int(math.Round(logical*scale)))
}

// dimAround returns the bands of b not covered by r.
func dimAround(b, r image.Rectangle, c color.RGBA) []Op {
	bands := []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Max.X, r.Min.Y),
		image.Rect(b.Min.X, r.Max.Y, b.Max.X, b.Max.Y),
		image.Rect(b.Min.X, r.Min.Y, r.Min.X, r.Max.Y),
		image.Rect(r.Max.X, r.Min.Y, b.Max.X, r.Max.Y),
	}
	var ops []Op
	for _, band := range bands {
		if !band.Empty() {
			ops = append(ops, Fill{Rect: band, Color: c})
		}
	}
	return ops
}

func crosshair(b image.Rectangle, at image.Point, c color.RGBA, w int) []Op {
	return []Op{
		Line{From: image.Pt(b.Min.X, at.Y), To: image.Pt(b.Max.X, at.Y), Color: c, Width: w},
		Line{From: image.Pt(at.X, b.Min.Y), To: image.Pt(at.X, b.Max.Y), Color: c, Width: w},
	}
}

// magnifier places the zoom panel beside the pointer, flipping to the other
// side of the pointer when it would leave the canvas.
func magnifier(s Scene) []Op {
	zoom := max(1, s.Magnifier.Zoom)
	size := px(s.Magnifier.Size, s.Scale)
	side := max(1, size/zoom)
	size = side * zoom
	gap := px(s.Style.MagnifierGap, s.Scale)
	p := s.Pointer

	src := image.Rect(p.X-side/2, p.Y-side/2, p.X-side/2+side, p.Y-side/2+side)

	x := p.X + gap
	if x+size > s.Bounds.Max.X {
		x = p.X - gap - size
	}
	y := p.Y + gap
	if y+size > s.Bounds.Max.Y {
		y = p.Y - gap - size
	}
	x = max(x, s.Bounds.Min.X)
	y = max(y, s.Bounds.Min.Y)
	dst := image.Rect(x, y, x+size, y+size)

	center := image.Pt(dst.Min.X+(p.X-src.Min.X)*zoom+zoom/2, dst.Min.Y+(p.Y-src.Min.Y)*zoom+zoom/2)
	w := px(1, s.Scale)
	return []Op{
		Magnifier{Dst: dst, Src: src, Zoom: zoom},
		Stroke{Rect: dst, Color: s.Style.Border, Width: px(s.Style.BorderWidth, s.Scale)},
		Line{From: image.Pt(dst.Min.X, center.Y), To: image.Pt(dst.Max.X, center.Y), Color: s.Style.Guide, Width: w},
		Line{From: image.Pt(center.X, dst.Min.Y), To: image.Pt(center.X, dst.Max.Y), Color: s.Style.Guide, Width: w},
	}
}
