package overlay

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"screen-cleave/src/input"
	"screen-cleave/src/render"
	"screen-cleave/src/session"
	"screen-cleave/src/selection"
)

// Host shows a session in a fullscreen fyne window and feeds it input. It
// implements render.Surface. All methods except Release run on the fyne
// main goroutine.
type Host struct {
	app   fyne.App
	title string

	mu       sync.Mutex
	win      fyne.Window
	released bool

	sess    *session.Session
	view    *view
	builder *builder
	proj    projection
	frame   render.Frame
	mods    input.Modifiers
}

var _ render.Surface = (*Host)(nil)

func New(app fyne.App, title string) *Host {
	return &Host{app: app, title: title, proj: projection{ratio: 1}}
}

// Select shows the overlay for s and blocks until the window closes. It must
// be called from the main goroutine. Closing the window cancels the session;
// so does ctx.
func (h *Host) Select(ctx context.Context, s *session.Session) session.Result {
	if res, done := s.Result(); done {
		return res
	}
	vc := s.Canvas()
	if vc == nil {
		s.Cancel()
		res, _ := s.Result()
		return res
	}

	h.sess = s
	h.builder = newBuilder(vc.Image())
	h.proj.offset = windowOrigin(vc.Bounds(), vc.Offset())
	s.SetWindowOffset(h.proj.offset)

	w := h.app.NewWindow(h.title)
	w.SetPadded(false)
	w.SetFullScreen(true)
	w.SetMaster()
	w.SetOnClosed(func() {
		log.Printf("Overlay: window closed")
		s.Cancel()
	})
	if dc, ok := w.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(h.keyDown)
		dc.SetOnKeyUp(h.keyUp)
	}

	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		res, _ := s.Result()
		return res
	}
	h.win = w
	h.mu.Unlock()

	h.view = newView(h)
	w.SetContent(h.view)

	stop := context.AfterFunc(ctx, func() {
		log.Printf("Overlay: context done, closing")
		fyne.Do(w.Close)
	})
	defer stop()

	log.Printf("Overlay: showing %dx%d canvas, window origin %v", vc.Size().X, vc.Size().Y, h.proj.offset)
	h.tick()
	w.ShowAndRun()

	if _, done := s.Result(); !done {
		s.Cancel()
	}
	res, _ := s.Result()
	return res
}

// windowOrigin is the capture-space position of the desktop origin, where a
// fullscreen window opens, or the canvas origin when the primary display is
// not part of the capture.
func windowOrigin(bounds image.Rectangle, offset image.Point) image.Point {
	p := image.Point{}.Sub(offset)
	if p.In(bounds) {
		return p
	}
	return bounds.Min
}

func (h *Host) Submit(f render.Frame) error {
	if h.view == nil || h.builder == nil {
		return errors.New("overlay not shown")
	}
	h.frame = f
	h.view.content.Objects = h.builder.objects(f, h.proj)
	return nil
}

func (h *Host) Present() error {
	if h.view == nil {
		return errors.New("overlay not shown")
	}
	h.view.content.Refresh()
	return nil
}

// Release closes the window. The session calls it while holding its own
// lock, so the close is queued rather than run inline.
func (h *Host) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	if w := h.win; w != nil {
		go fyne.Do(w.Close)
	}
}

func (h *Host) dispatch(ev input.Event) {
	if h.sess == nil {
		return
	}
	err := h.sess.HandleInput(ev)
	switch {
	case err == nil, errors.Is(err, session.ErrSessionEnded):
	case errors.Is(err, selection.ErrInvalidTransition):
		log.Printf("Overlay: ignored %s: %v", ev.Kind, err)
	default:
		log.Printf("Overlay: %s: %v", ev.Kind, err)
	}
	h.tick()
}

func (h *Host) tick() {
	if h.sess == nil {
		return
	}
	if err := h.sess.Tick(); err != nil {
		log.Printf("Overlay: frame: %v", err)
	}
}

// updateScale reads the logical-to-pixel ratio from the window canvas.
func (h *Host) updateScale() {
	if h.win == nil || h.sess == nil {
		return
	}
	c := h.win.Canvas()
	ratio := float64(c.Scale())
	if x, _ := c.PixelCoordinateForPosition(fyne.NewPos(100, 0)); x > 0 {
		ratio = float64(x) / 100
	}
	if ratio <= 0 || float32(ratio) == h.proj.ratio {
		return
	}
	log.Printf("Overlay: device pixel ratio %.2f", ratio)
	h.proj.ratio = float32(ratio)
	h.sess.SetDevicePixelRatio(ratio)
	h.tick()
}

func (h *Host) keyDown(e *fyne.KeyEvent) {
	key := input.NormalizeKey(string(e.Name))
	h.mods |= modifierBit(key)
	h.dispatch(input.Event{Kind: input.KeyPress, Key: key, Modifiers: h.mods})
}

func (h *Host) keyUp(e *fyne.KeyEvent) {
	key := input.NormalizeKey(string(e.Name))
	h.mods &^= modifierBit(key)
	h.dispatch(input.Event{Kind: input.KeyRelease, Key: key, Modifiers: h.mods})
}
