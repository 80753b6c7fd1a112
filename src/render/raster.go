package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Rasterize executes f onto dst in software, reading Image and Magnifier
// pixels from src. Hosts without a scene graph and tests use it.
func Rasterize(dst draw.Image, f Frame, src image.Image) {
	for _, op := range f.Ops {
		switch op := op.(type) {
		case Image:
			draw.Draw(dst, op.Dst, src, src.Bounds().Min, draw.Src)
		case Fill:
			fill(dst, op.Rect, op.Color)
		case Stroke:
			for _, r := range op.Edges() {
				fill(dst, r, op.Color)
			}
		case Line:
			fill(dst, op.Bounds(), op.Color)
		case Magnifier:
			magnify(dst, op, src)
		}
	}
}

func fill(dst draw.Image, r image.Rectangle, c color.RGBA) {
	if r.Empty() {
		return
	}
	op := draw.Over
	if c.A == 0xff {
		op = draw.Src
	}
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, op)
}

// magnify copies op.Src into a scratch bitmap first so parts outside the
// canvas come out transparent, then scales it up without smoothing.
func magnify(dst draw.Image, op Magnifier, src image.Image) {
	if op.Src.Empty() || op.Dst.Empty() {
		return
	}
	scratch := image.NewRGBA(image.Rectangle{Max: op.Src.Size()})
	draw.Draw(scratch, scratch.Bounds(), src, op.Src.Min, draw.Src)
	draw.NearestNeighbor.Scale(dst, op.Dst, scratch, scratch.Bounds(), draw.Src, nil)
}
