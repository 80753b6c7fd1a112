package overlay

import (
	"context"
	"image"
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"

	vcanvas "screen-cleave/src/canvas"
	"screen-cleave/src/input"
	"screen-cleave/src/output"
	"screen-cleave/src/render"
	"screen-cleave/src/selection"
	"screen-cleave/src/session"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestProjection(t *testing.T) {
	p := projection{offset: image.Pt(100, 50), ratio: 2}

	if got := p.pos(image.Pt(300, 250)); got != fyne.NewPos(100, 100) {
		t.Errorf("Expected (100,100), got %v", got)
	}
	if got := p.size(image.Pt(40, 10)); got != fyne.NewSize(20, 5) {
		t.Errorf("Expected 20x5, got %v", got)
	}
}

func TestWindowOrigin(t *testing.T) {
	tests := []struct {
		name   string
		bounds image.Rectangle
		offset image.Point
		want   image.Point
	}{
		{"primary first", image.Rect(0, 0, 3840, 1080), image.Pt(0, 0), image.Pt(0, 0)},
		{"monitor left of primary", image.Rect(0, 0, 3200, 1080), image.Pt(-1280, 0), image.Pt(1280, 0)},
		{"primary not captured", image.Rect(0, 0, 1920, 1080), image.Pt(1920, 0), image.Pt(0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := windowOrigin(tt.bounds, tt.offset); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestBuilderObjects(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	src := solid(200, 100, color.RGBA{G: 255, A: 255})
	b := newBuilder(src)
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	frame := render.Frame{Size: image.Pt(200, 100), Ops: []render.Op{
		render.Image{Dst: image.Rect(0, 0, 200, 100)},
		render.Fill{Rect: image.Rect(0, 0, 200, 10), Color: color.RGBA{A: 128}},
		render.Fill{Rect: image.Rectangle{}, Color: white},
		render.Stroke{Rect: image.Rect(20, 20, 60, 40), Color: white, Width: 2},
		render.Line{From: image.Pt(0, 50), To: image.Pt(200, 50), Color: white, Width: 1},
		render.Magnifier{Dst: image.Rect(100, 60, 140, 100), Src: image.Rect(10, 10, 15, 15), Zoom: 8},
	}}

	objs := b.objects(frame, projection{offset: image.Pt(0, 0), ratio: 2})
	// image + fill + 4 stroke edges + line + magnifier; empty fill dropped
	if len(objs) != 8 {
		t.Fatalf("Expected 8 objects, got %d", len(objs))
	}
	if objs[0] != b.background {
		t.Error("Expected the background image object to be reused")
	}
	if objs[0].Size() != fyne.NewSize(100, 50) {
		t.Errorf("Expected background scaled to 100x50, got %v", objs[0].Size())
	}
	if _, ok := objs[1].(*canvas.Rectangle); !ok {
		t.Errorf("Expected fill rectangle, got %T", objs[1])
	}
	top := objs[2]
	if top.Position() != fyne.NewPos(9, 9) || top.Size() != fyne.NewSize(22, 1) {
		t.Errorf("Expected top border at (9,9) 22x1, got %v %v", top.Position(), top.Size())
	}
	mag, ok := objs[7].(*canvas.Image)
	if !ok {
		t.Fatalf("Expected magnifier image, got %T", objs[7])
	}
	if mag.Image.Bounds().Size() != image.Pt(40, 40) {
		t.Errorf("Expected 40x40 magnifier patch, got %v", mag.Image.Bounds().Size())
	}
	if mag.Position() != fyne.NewPos(50, 30) {
		t.Errorf("Expected magnifier at (50,30), got %v", mag.Position())
	}

	again := b.objects(frame, projection{ratio: 2})
	if again[0] != objs[0] {
		t.Error("Expected the same background object on the next frame")
	}
}

type sinkRecorder struct {
	requests []output.Request
}

func (s *sinkRecorder) Deliver(req output.Request) error {
	s.requests = append(s.requests, req)
	return nil
}

func newTestHost(t *testing.T) (*Host, *session.Session, *sinkRecorder) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	h := New(a, "test")
	sink := &sinkRecorder{}
	grab := session.GrabberFunc(func(ctx context.Context) ([]vcanvas.MonitorDescriptor, map[int]*image.RGBA, error) {
		return []vcanvas.MonitorDescriptor{{ID: 0, Size: image.Pt(400, 300), Scale: 1}},
			map[int]*image.RGBA{0: solid(400, 300, color.RGBA{R: 255, A: 255})}, nil
	})
	s, err := session.Start(context.Background(), session.Options{
		Grabber: grab,
		Sink:    sink,
		Target:  output.Target{Kind: output.Clipboard},
		Surface: h,
		Input:   input.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.sess = s
	h.builder = newBuilder(s.Canvas().Image())
	h.view = newView(h)
	return h, s, sink
}

func mouse(x, y float32, b desktop.MouseButton) *desktop.MouseEvent {
	return &desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}, Button: b}
}

func TestHostDragAndConfirm(t *testing.T) {
	h, s, sink := newTestHost(t)
	v := h.view

	v.MouseDown(mouse(10, 10, desktop.MouseButtonPrimary))
	v.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(110, 60)}})
	v.MouseUp(mouse(110, 60, desktop.MouseButtonPrimary))
	v.DragEnd()

	snap := s.Snapshot()
	if snap.Phase != selection.Ready {
		t.Fatalf("Expected Ready, got %v", snap.Phase)
	}
	if snap.Rect != image.Rect(10, 10, 110, 60) {
		t.Errorf("Expected (10,10)-(110,60), got %v", snap.Rect)
	}
	if len(h.view.content.Objects) == 0 {
		t.Error("Expected the frame to be submitted to the view")
	}

	h.keyDown(&fyne.KeyEvent{Name: fyne.KeyReturn})
	if s.Phase() != session.Confirmed {
		t.Fatalf("Expected Confirmed, got %v", s.Phase())
	}
	if len(sink.requests) != 1 || sink.requests[0].Image.Bounds().Size() != image.Pt(100, 50) {
		t.Errorf("Expected one 100x50 output request, got %+v", sink.requests)
	}
	if !h.released {
		t.Error("Expected the surface to be released")
	}

	// input after the end is ignored
	v.MouseDown(mouse(5, 5, desktop.MouseButtonPrimary))
	if len(sink.requests) != 1 {
		t.Error("Expected no further output")
	}
}

func TestHostEscapeCancels(t *testing.T) {
	h, s, sink := newTestHost(t)

	h.keyDown(&fyne.KeyEvent{Name: fyne.KeyEscape})
	res, done := s.Result()
	if !done || res.Phase != session.Cancelled {
		t.Fatalf("Expected Cancelled, got %v (done=%v)", res.Phase, done)
	}
	if len(sink.requests) != 0 {
		t.Error("Expected no output on cancel")
	}
}

func TestHostModifierTracking(t *testing.T) {
	h, _, _ := newTestHost(t)

	h.keyDown(&fyne.KeyEvent{Name: desktop.KeyShiftLeft})
	if !h.mods.Has(input.ModShift) {
		t.Error("Expected shift held")
	}
	h.keyUp(&fyne.KeyEvent{Name: desktop.KeyShiftLeft})
	if h.mods.Has(input.ModShift) {
		t.Error("Expected shift released")
	}
}

func TestModifiersAndButtons(t *testing.T) {
	m := modifiers(fyne.KeyModifierShift | fyne.KeyModifierControl)
	if !m.Has(input.ModShift) || !m.Has(input.ModCtrl) || m.Has(input.ModAlt) {
		t.Errorf("Unexpected modifiers %b", m)
	}
	if button(desktop.MouseButtonSecondary) != input.ButtonRight {
		t.Error("Expected secondary button to map to right")
	}
	if button(desktop.MouseButtonTertiary) != input.ButtonMiddle {
		t.Error("Expected tertiary button to map to middle")
	}
}
