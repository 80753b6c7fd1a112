package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"

	"screen-cleave/src/canvas"
	"screen-cleave/src/input"
	"screen-cleave/src/output"
	"screen-cleave/src/render"
	"screen-cleave/src/selection"
)

var (
	// ErrSelectionCancelled reports a cancel by the user.
	ErrSelectionCancelled = errors.New("selection cancelled")

	// ErrCapture wraps a failed monitor grab.
	ErrCapture = errors.New("capture failed")

	// ErrOutput wraps a sink failure after confirmation.
	ErrOutput = errors.New("output failed")

	// ErrSessionEnded is returned for input after a terminal phase.
	ErrSessionEnded = errors.New("session ended")
)

// Phase is the lifecycle state of a session.
type Phase int

const (
	Capturing Phase = iota
	Selecting
	Confirmed
	Cancelled
)

func (p Phase) String() string {
	switch p {
	case Capturing:
		return "capturing"
	case Selecting:
		return "selecting"
	case Confirmed:
		return "confirmed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether p is Confirmed or Cancelled.
func (p Phase) Terminal() bool { return p == Confirmed || p == Cancelled }

// Grabber enumerates monitors and fetches one bitmap per monitor. Descriptor
// origins are in desktop coordinates.
type Grabber interface {
	Grab(ctx context.Context) ([]canvas.MonitorDescriptor, map[int]*image.RGBA, error)
}

// GrabberFunc adapts a function to Grabber.
type GrabberFunc func(ctx context.Context) ([]canvas.MonitorDescriptor, map[int]*image.RGBA, error)

func (f GrabberFunc) Grab(ctx context.Context) ([]canvas.MonitorDescriptor, map[int]*image.RGBA, error) {
	return f(ctx)
}

// Sink receives the single output request of a confirmed session.
type Sink interface {
	Deliver(req output.Request) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(req output.Request) error

func (f SinkFunc) Deliver(req output.Request) error { return f(req) }

// Options wires a session to its collaborators. Grabber and Sink are required.
type Options struct {
	Grabber Grabber
	Sink    Sink
	Target  output.Target
	// Surface is optional; without one the host pulls frames via RenderFrame.
	Surface   render.Surface
	Input     input.Config
	Magnifier render.MagnifierConfig
	Style     *render.Style
	// Region, when set, selects a capture-space rectangle without user input.
	Region *image.Rectangle
}

// Result is the outcome of a finished session. Err is nil for a delivered
// capture.
type Result struct {
	Phase Phase
	// Rect is the confirmed selection in capture space.
	Rect    image.Rectangle
	Desktop image.Rectangle
	Image   *image.RGBA
	Err     error
}

// Session drives one capture from grab to a terminal phase. Calls are
// serialized; the session starts no goroutines.
type Session struct {
	mu sync.Mutex

	opts       Options
	style      render.Style
	phase      Phase
	canvas     *canvas.VirtualCanvas
	model      *selection.Model
	translator *input.Translator
	result     Result
	released   bool
}

// Start grabs every monitor and enters Selecting. Capture and geometry
// failures end the session immediately; they are reported through Result,
// not the returned error, which only signals missing collaborators.
func Start(ctx context.Context, opts Options) (*Session, error) {
	if opts.Grabber == nil {
		return nil, errors.New("Grabber is required")
	}
	if opts.Sink == nil {
		return nil, errors.New("Sink is required")
	}

	s := &Session{opts: opts, phase: Capturing, style: render.DefaultStyle()}
	if opts.Style != nil {
		s.style = *opts.Style
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	descs, bitmaps, err := opts.Grabber.Grab(ctx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.finish(Result{Phase: Cancelled, Err: fmt.Errorf("%w: %w", ErrCapture, err)})
		return s, nil
	}

	vc, err := canvas.Build(bitmaps, descs)
	if err != nil {
		s.finish(Result{Phase: Cancelled, Err: err})
		return s, nil
	}
	s.canvas = vc
	s.model = selection.New(vc.Bounds())
	s.translator = input.NewTranslator(s.model, opts.Input)
	s.translator.SetMonitorScale(vc.ScaleAt)
	s.phase = Selecting
	log.Printf("Session: selecting on %dx%d canvas (%d monitors, offset %v)",
		vc.Size().X, vc.Size().Y, len(descs), vc.Offset())
	for _, m := range vc.Monitors() {
		log.Printf("Session: monitor %d at %v scale %.2f", m.ID, m.Rect(), m.Scale)
	}

	if opts.Region != nil {
		if err := s.applyRegion(*opts.Region); err != nil {
			s.finish(Result{Phase: Cancelled, Err: err})
			return s, nil
		}
		s.sync()
	}
	return s, nil
}

func (s *Session) applyRegion(r image.Rectangle) error {
	r = r.Canon()
	log.Printf("Session: using fixed region %v", r)
	steps := []func() error{
		func() error { return s.model.BeginDrag(r.Min) },
		func() error { return s.model.UpdateCursor(r.Max) },
		s.model.EndDrag,
		s.model.Confirm,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return fmt.Errorf("region %v: %w", r, err)
		}
	}
	return nil
}

// HandleInput forwards one host event. Invalid transitions are returned and
// leave the session unchanged.
func (s *Session) HandleInput(ev input.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != Selecting {
		return ErrSessionEnded
	}
	err := s.translator.Handle(ev)
	s.sync()
	return err
}

// Cancel ends a session that is still selecting, e.g. when the host window
// closes.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != Selecting {
		return
	}
	if err := s.model.Cancel(); err != nil {
		log.Printf("Session: cancel: %v", err)
	}
	s.sync()
}

// SetDevicePixelRatio updates the logical-to-device ratio reported by the host.
func (s *Session) SetDevicePixelRatio(r float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.translator != nil {
		s.translator.SetDevicePixelRatio(r)
	}
}

// SetWindowOffset tells the session where the host window origin sits in
// capture space.
func (s *Session) SetWindowOffset(p image.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.translator != nil {
		s.translator.SetWindowOffset(p)
	}
}

// sync reacts to the selection reaching a terminal phase.
func (s *Session) sync() {
	switch s.model.Phase() {
	case selection.Confirmed:
		s.deliver()
	case selection.Cancelled:
		s.finish(Result{Phase: Cancelled, Err: ErrSelectionCancelled})
	}
}

func (s *Session) deliver() {
	rect := s.model.Rect()
	req := output.Request{
		Image:   s.canvas.Crop(rect),
		Target:  s.opts.Target,
		Rect:    rect,
		Desktop: s.canvas.ToDesktop(rect),
	}
	if m, ok := s.canvas.MonitorAt(rect.Min); ok {
		log.Printf("Session: confirmed %v (%dx%d) starting on monitor %d, delivering to %s",
			rect, rect.Dx(), rect.Dy(), m.ID, req.Target)
	} else {
		log.Printf("Session: confirmed %v (%dx%d), delivering to %s", rect, rect.Dx(), rect.Dy(), req.Target)
	}

	res := Result{Phase: Confirmed, Rect: rect, Desktop: req.Desktop, Image: req.Image}
	if err := s.opts.Sink.Deliver(req); err != nil {
		res.Err = fmt.Errorf("%w: %w", ErrOutput, err)
	}
	s.finish(res)
}

func (s *Session) finish(res Result) {
	s.phase = res.Phase
	s.result = res
	if res.Err != nil {
		log.Printf("Session: %s: %v", res.Phase, res.Err)
	} else {
		log.Printf("Session: %s", res.Phase)
	}
	if s.opts.Surface != nil && !s.released {
		s.released = true
		s.opts.Surface.Release()
	}
}

// RenderFrame builds the frame for the current state. It returns an empty
// frame once the session has no canvas.
func (s *Session) RenderFrame() render.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame()
}

func (s *Session) frame() render.Frame {
	if s.canvas == nil || s.phase != Selecting {
		return render.Frame{}
	}
	p, ok := s.translator.Pointer()
	snap := s.model.Snapshot()
	at := snap.Cursor
	if ok {
		at = p
	}
	r := snap.Rect
	center := image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
	mag := s.opts.Magnifier
	mag.Zoom = s.translator.Zoom()
	return render.Build(render.Scene{
		Bounds:         s.canvas.Bounds(),
		Selection:      snap,
		Pointer:        p,
		HasPointer:     ok,
		Scale:          s.translator.ScaleAt(at),
		SelectionScale: s.translator.ScaleAt(center),
		Magnifier:      mag,
		Style:          s.style,
	})
}

// Tick submits and presents the current frame to the surface, if any.
func (s *Session) Tick() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.Surface == nil || s.phase != Selecting {
		return nil
	}
	if err := s.opts.Surface.Submit(s.frame()); err != nil {
		return err
	}
	return s.opts.Surface.Present()
}

// Result returns the outcome once the session is terminal.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.phase.Terminal()
}

// Phase returns the current session phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Canvas returns the stitched capture, or nil if the grab failed.
func (s *Session) Canvas() *canvas.VirtualCanvas {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvas
}

// Snapshot returns the selection state, or a zero value before Selecting.
func (s *Session) Snapshot() selection.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return selection.Snapshot{}
	}
	return s.model.Snapshot()
}
