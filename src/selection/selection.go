package selection

import (
	"fmt"
	"image"
	"math"
)

type event int

const (
	evBeginDrag event = iota
	evUpdate
	evRelease
	evClick
	evBeginAdjust
	evConfirm
	evCancel
	evReset
	evNudge
)

func (e event) String() string {
	return [...]string{
		"begin-drag", "update", "release", "click", "begin-adjust",
		"confirm", "cancel", "reset", "nudge",
	}[e]
}

type edge struct {
	from Phase
	ev   event
}

// transitions is the complete phase graph. Pairs missing here are rejected.
var transitions = map[edge]Phase{
	{Idle, evBeginDrag}: Dragging,
	{Idle, evCancel}:    Cancelled,

	{Dragging, evUpdate}:  Dragging,
	{Dragging, evRelease}: Ready,
	{Dragging, evClick}:   Idle,
	{Dragging, evCancel}:  Cancelled,
	{Dragging, evReset}:   Idle,

	{Adjusting, evUpdate}:  Adjusting,
	{Adjusting, evRelease}: Ready,
	{Adjusting, evClick}:   Idle,
	{Adjusting, evCancel}:  Cancelled,
	{Adjusting, evReset}:   Idle,

	{Ready, evBeginAdjust}: Adjusting,
	{Ready, evConfirm}:     Confirmed,
	{Ready, evCancel}:      Cancelled,
	{Ready, evReset}:       Idle,
	{Ready, evNudge}:       Ready,
}

// Model is the selection state machine. All points are capture-space pixel
// edges clamped to the bounds given to New.
type Model struct {
	phase  Phase
	handle Handle
	anchor image.Point
	cursor image.Point
	bounds image.Rectangle
	aspect float64
	frozen bool

	// Move bookkeeping: where the grab started and the rectangle at that time.
	grab     image.Point
	grabRect image.Rectangle
}

// New returns an Idle model bounded by bounds.
func New(bounds image.Rectangle) *Model {
	return &Model{bounds: bounds.Canon()}
}

// next looks up the target phase for ev without applying it.
func (m *Model) next(ev event) (Phase, error) {
	to, ok := transitions[edge{m.phase, ev}]
	if !ok {
		return m.phase, fmt.Errorf("%w: %s while %s", ErrInvalidTransition, ev, m.phase)
	}
	return to, nil
}

// Phase returns the current interaction phase.
func (m *Model) Phase() Phase { return m.phase }

// Handle returns the grabbed handle, HandleNone outside Adjusting.
func (m *Model) Handle() Handle { return m.handle }

// Bounds returns the canvas rectangle every point is clamped to.
func (m *Model) Bounds() image.Rectangle { return m.bounds }

// AspectLocked reports whether resizing keeps a fixed ratio.
func (m *Model) AspectLocked() bool { return m.aspect > 0 }

// Frozen reports whether the magnifier is paused.
func (m *Model) Frozen() bool { return m.frozen }

// Cursor returns the moving corner of the rectangle.
func (m *Model) Cursor() image.Point { return m.cursor }

// Anchor returns the fixed corner of the rectangle.
func (m *Model) Anchor() image.Point { return m.anchor }

// Rect returns the normalized selection rectangle.
func (m *Model) Rect() image.Rectangle {
	return image.Rectangle{Min: m.anchor, Max: m.cursor}.Canon()
}

// Snapshot returns a value copy of the current state.
func (m *Model) Snapshot() Snapshot {
	return Snapshot{
		Phase:        m.phase,
		Handle:       m.handle,
		Anchor:       m.anchor,
		Cursor:       m.cursor,
		Rect:         m.Rect(),
		AspectLocked: m.aspect > 0,
		Aspect:       m.aspect,
		Frozen:       m.frozen,
		Bounds:       m.bounds,
	}
}

// BeginDrag starts a new rectangle at p.
func (m *Model) BeginDrag(p image.Point) error {
	to, err := m.next(evBeginDrag)
	if err != nil {
		return err
	}
	p = m.clamp(p)
	m.anchor, m.cursor = p, p
	m.handle = HandleNone
	m.phase = to
	return nil
}

// UpdateCursor moves the cursor while dragging, or the grabbed handle while
// adjusting.
func (m *Model) UpdateCursor(p image.Point) error {
	to, err := m.next(evUpdate)
	if err != nil {
		return err
	}
	p = m.clamp(p)

	switch {
	case m.phase == Dragging:
		m.cursor = p
		if m.aspect > 0 {
			m.cursor = m.lockAspect(m.anchor, p, axisAuto)
		}
	case m.handle == HandleMove:
		r := shiftInto(m.grabRect.Add(p.Sub(m.grab)), m.bounds)
		m.anchor, m.cursor = r.Min, r.Max
	default:
		c := m.cursor
		if m.handle.drivesX() {
			c.X = p.X
		}
		if m.handle.drivesY() {
			c.Y = p.Y
		}
		if m.aspect > 0 {
			ax := axisAuto
			switch {
			case !m.handle.drivesY():
				ax = axisX
			case !m.handle.drivesX():
				ax = axisY
			}
			c = m.lockAspect(m.anchor, c, ax)
		}
		m.cursor = c
	}
	m.phase = to
	return nil
}

// EndDrag finishes a drag or an adjustment. A zero-area result is treated as
// a click and returns the model to Idle.
func (m *Model) EndDrag() error {
	ev := evRelease
	r := m.Rect()
	if r.Empty() {
		ev = evClick
	}
	to, err := m.next(ev)
	if err != nil {
		return err
	}
	if ev == evClick {
		m.anchor = m.cursor
	} else {
		m.anchor, m.cursor = r.Min, r.Max
	}
	m.handle = HandleNone
	m.phase = to
	return nil
}

// BeginAdjust grabs handle h of a Ready rectangle at p.
func (m *Model) BeginAdjust(h Handle, p image.Point) error {
	if h == HandleNone {
		return fmt.Errorf("%w: no handle", ErrInvalidTransition)
	}
	to, err := m.next(evBeginAdjust)
	if err != nil {
		return err
	}
	r := m.Rect()
	if h == HandleMove {
		m.grab = m.clamp(p)
		m.grabRect = r
	} else {
		m.anchor = h.opposite(r)
		m.cursor = moving(h, r)
	}
	m.handle = h
	m.phase = to
	return nil
}

// Confirm accepts the current rectangle.
func (m *Model) Confirm() error {
	to, err := m.next(evConfirm)
	if err != nil {
		return err
	}
	if m.Rect().Empty() {
		return fmt.Errorf("%w: confirm with empty rectangle", ErrInvalidTransition)
	}
	m.phase = to
	return nil
}

// Cancel ends the selection without a result.
func (m *Model) Cancel() error {
	to, err := m.next(evCancel)
	if err != nil {
		return err
	}
	m.anchor, m.cursor = image.Point{}, image.Point{}
	m.handle = HandleNone
	m.phase = to
	return nil
}

// Reset drops the rectangle and returns to Idle.
func (m *Model) Reset() error {
	to, err := m.next(evReset)
	if err != nil {
		return err
	}
	m.anchor = m.cursor
	m.handle = HandleNone
	m.phase = to
	return nil
}

// Nudge adjusts a Ready rectangle by (dx, dy) pixels. A nudge that would
// collapse the rectangle is rejected.
func (m *Model) Nudge(dx, dy int, mode NudgeMode) error {
	to, err := m.next(evNudge)
	if err != nil {
		return err
	}
	r := m.Rect()
	d := image.Pt(dx, dy)

	switch mode {
	case NudgeResize:
		r.Max = m.clamp(r.Max.Add(d))
	case NudgeInverseResize:
		r.Min = m.clamp(r.Min.Add(d))
	default:
		r = shiftInto(r.Add(d), m.bounds)
	}
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return fmt.Errorf("%w: nudge would collapse the selection", ErrInvalidTransition)
	}
	m.anchor, m.cursor = r.Min, r.Max
	m.phase = to
	return nil
}

// ToggleAspectLock locks the aspect ratio to the current rectangle, or unlocks
// it. It returns the new lock state; a rectangle without area cannot be locked.
func (m *Model) ToggleAspectLock() (bool, error) {
	if m.phase.Terminal() {
		return false, fmt.Errorf("%w: aspect lock while %s", ErrInvalidTransition, m.phase)
	}
	if m.aspect > 0 {
		m.aspect = 0
		return false, nil
	}
	r := m.Rect()
	if r.Dx() == 0 || r.Dy() == 0 {
		return false, nil
	}
	m.aspect = float64(r.Dx()) / float64(r.Dy())
	return true, nil
}

// ToggleFreeze flips the magnifier freeze flag and returns the new value.
func (m *Model) ToggleFreeze() (bool, error) {
	if m.phase.Terminal() {
		return m.frozen, fmt.Errorf("%w: freeze while %s", ErrInvalidTransition, m.phase)
	}
	m.frozen = !m.frozen
	return m.frozen, nil
}

func (m *Model) clamp(p image.Point) image.Point {
	b := m.bounds
	p.X = min(max(p.X, b.Min.X), b.Max.X)
	p.Y = min(max(p.Y, b.Min.Y), b.Max.Y)
	return p
}

type axis int

const (
	axisAuto axis = iota
	axisX
	axisY
)

// lockAspect returns the cursor position that keeps the locked ratio for a
// rectangle spanned from anchor towards p. The driven axis keeps its length
// and the other is derived; the result is shrunk to stay inside the bounds.
func (m *Model) lockAspect(anchor, p image.Point, ax axis) image.Point {
	dx, dy := p.X-anchor.X, p.Y-anchor.Y
	sx, sy := 1, 1
	if dx < 0 {
		sx = -1
	}
	if dy < 0 {
		sy = -1
	}
	w, h := math.Abs(float64(dx)), math.Abs(float64(dy))
	r := m.aspect

	if ax == axisAuto {
		ax = axisY
		if w >= h*r {
			ax = axisX
		}
	}
	if ax == axisX {
		h = w / r
	} else {
		w = h * r
	}

	wAvail := float64(m.bounds.Max.X - anchor.X)
	if sx < 0 {
		wAvail = float64(anchor.X - m.bounds.Min.X)
	}
	hAvail := float64(m.bounds.Max.Y - anchor.Y)
	if sy < 0 {
		hAvail = float64(anchor.Y - m.bounds.Min.Y)
	}
	f := 1.0
	if w > wAvail {
		f = min(f, wAvail/w)
	}
	if h > hAvail {
		f = min(f, hAvail/h)
	}
	w, h = w*f, h*f

	return image.Pt(anchor.X+sx*int(math.Round(w)), anchor.Y+sy*int(math.Round(h)))
}

// moving returns the corner of r that follows the pointer for handle h.
func moving(h Handle, r image.Rectangle) image.Point {
	switch h {
	case HandleTopLeft, HandleTop, HandleLeft:
		return r.Min
	case HandleTopRight:
		return image.Pt(r.Max.X, r.Min.Y)
	case HandleBottomLeft:
		return image.Pt(r.Min.X, r.Max.Y)
	default:
		return r.Max
	}
}

// shiftInto translates r so it lies inside b where possible, keeping its size.
func shiftInto(r, b image.Rectangle) image.Rectangle {
	var d image.Point
	switch {
	case r.Min.X < b.Min.X:
		d.X = b.Min.X - r.Min.X
	case r.Max.X > b.Max.X:
		d.X = b.Max.X - r.Max.X
	}
	switch {
	case r.Min.Y < b.Min.Y:
		d.Y = b.Min.Y - r.Min.Y
	case r.Max.Y > b.Max.Y:
		d.Y = b.Max.Y - r.Max.Y
	}
	return r.Add(d).Intersect(b)
}
