package overlay

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"screen-cleave/src/render"
)

// projection maps capture-space pixels onto window-logical fyne units.
type projection struct {
	offset image.Point
	ratio  float32
}

func (p projection) pos(pt image.Point) fyne.Position {
	d := pt.Sub(p.offset)
	return fyne.NewPos(float32(d.X)/p.ratio, float32(d.Y)/p.ratio)
}

func (p projection) size(sz image.Point) fyne.Size {
	return fyne.NewSize(float32(sz.X)/p.ratio, float32(sz.Y)/p.ratio)
}

func (p projection) place(o fyne.CanvasObject, r image.Rectangle) fyne.CanvasObject {
	o.Move(p.pos(r.Min))
	o.Resize(p.size(r.Size()))
	return o
}

func (p projection) rect(r image.Rectangle, c color.RGBA) fyne.CanvasObject {
	return p.place(canvas.NewRectangle(c), r)
}

// builder turns render frames into fyne canvas objects. The background image
// object is reused between frames so its texture is uploaded once.
type builder struct {
	src        image.Image
	background *canvas.Image
}

func newBuilder(src image.Image) *builder {
	bg := canvas.NewImageFromImage(src)
	bg.FillMode = canvas.ImageFillStretch
	bg.ScaleMode = canvas.ImageScalePixels
	return &builder{src: src, background: bg}
}

func (b *builder) objects(f render.Frame, p projection) []fyne.CanvasObject {
	if p.ratio <= 0 {
		p.ratio = 1
	}
	objs := make([]fyne.CanvasObject, 0, len(f.Ops)+3)
	for _, op := range f.Ops {
		switch op := op.(type) {
		case render.Image:
			objs = append(objs, p.place(b.background, op.Dst))
		case render.Fill:
			if !op.Rect.Empty() {
				objs = append(objs, p.rect(op.Rect, op.Color))
			}
		case render.Stroke:
			for _, r := range op.Edges() {
				objs = append(objs, p.rect(r, op.Color))
			}
		case render.Line:
			objs = append(objs, p.rect(op.Bounds(), op.Color))
		case render.Magnifier:
			if o := b.magnifier(op); o != nil {
				objs = append(objs, p.place(o, op.Dst))
			}
		}
	}
	return objs
}

// magnifier rasterizes the zoomed patch into its own small image.
func (b *builder) magnifier(op render.Magnifier) fyne.CanvasObject {
	if op.Dst.Empty() || op.Src.Empty() || b.src == nil {
		return nil
	}
	patch := image.NewRGBA(image.Rectangle{Max: op.Dst.Size()})
	local := op
	local.Dst = patch.Bounds()
	render.Rasterize(patch, render.Frame{Size: patch.Bounds().Size(), Ops: []render.Op{local}}, b.src)

	img := canvas.NewImageFromImage(patch)
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScalePixels
	return img
}
