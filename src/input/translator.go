package input

import (
	"image"
	"math"

	"screen-cleave/src/selection"
)

// Config controls how raw host events map onto selection operations.
type Config struct {
	AspectLockKey        string
	CancelKey            string
	ConfirmKeys          []string
	FreezeKey            string
	ConfirmOnDoubleClick bool

	// HandleMargin is the hit-test slop around handles in logical pixels.
	HandleMargin float64

	// DevicePixelRatio converts logical window units to device pixels.
	DevicePixelRatio float64
	// WindowOffset is the capture-space position of the window origin.
	WindowOffset image.Point

	NudgeMode selection.NudgeMode
	NudgeStep int

	Zoom    int
	MinZoom int
	MaxZoom int
}

func DefaultConfig() Config {
	return Config{
		AspectLockKey:        "alt",
		CancelKey:            "escape",
		ConfirmKeys:          []string{"enter", "space"},
		FreezeKey:            "f",
		ConfirmOnDoubleClick: true,
		HandleMargin:         8,
		DevicePixelRatio:     1,
		NudgeMode:            selection.NudgeMove,
		NudgeStep:            1,
		Zoom:                 8,
		MinZoom:              2,
		MaxZoom:              32,
	}
}

// Translator turns host events into selection operations. It also tracks the
// pointer and the magnifier zoom, which do not belong to the model.
type Translator struct {
	cfg   Config
	model *selection.Model

	pointer    image.Point
	hasPointer bool
	zoom       int

	monitorScale func(image.Point) float64
}

func NewTranslator(model *selection.Model, cfg Config) *Translator {
	if cfg.DevicePixelRatio <= 0 {
		cfg.DevicePixelRatio = 1
	}
	if cfg.NudgeStep <= 0 {
		cfg.NudgeStep = 1
	}
	if cfg.MinZoom <= 0 {
		cfg.MinZoom = 1
	}
	if cfg.MaxZoom < cfg.MinZoom {
		cfg.MaxZoom = cfg.MinZoom
	}
	cfg.AspectLockKey = NormalizeKey(cfg.AspectLockKey)
	cfg.CancelKey = NormalizeKey(cfg.CancelKey)
	cfg.FreezeKey = NormalizeKey(cfg.FreezeKey)
	keys := make([]string, 0, len(cfg.ConfirmKeys))
	for _, k := range cfg.ConfirmKeys {
		keys = append(keys, NormalizeKey(k))
	}
	cfg.ConfirmKeys = keys

	t := &Translator{cfg: cfg, model: model}
	t.zoom = t.clampZoom(cfg.Zoom)
	return t
}

// Pointer returns the last known pointer position in capture space.
func (t *Translator) Pointer() (image.Point, bool) { return t.pointer, t.hasPointer }

// Zoom returns the current magnifier zoom factor.
func (t *Translator) Zoom() int { return t.zoom }

func (t *Translator) DevicePixelRatio() float64 { return t.cfg.DevicePixelRatio }

// SetMonitorScale installs the per-monitor scale factor lookup used by ScaleAt.
func (t *Translator) SetMonitorScale(f func(image.Point) float64) { t.monitorScale = f }

// ScaleAt returns the device pixel ratio at a capture-space point. The host
// ratio is measured on the window's own monitor, so other monitors are scaled
// relative to it.
func (t *Translator) ScaleAt(p image.Point) float64 {
	r := t.cfg.DevicePixelRatio
	if t.monitorScale == nil {
		return r
	}
	ref, at := t.monitorScale(t.cfg.WindowOffset), t.monitorScale(p)
	if ref <= 0 || at <= 0 {
		return r
	}
	return r * at / ref
}

// SetDevicePixelRatio updates the ratio when the host reports a new scale.
func (t *Translator) SetDevicePixelRatio(r float64) {
	if r > 0 {
		t.cfg.DevicePixelRatio = r
	}
}

// SetWindowOffset moves the window origin within capture space.
func (t *Translator) SetWindowOffset(p image.Point) { t.cfg.WindowOffset = p }

// ToCapture converts a window-logical point to capture space.
func (t *Translator) ToCapture(p Point) image.Point {
	r := t.cfg.DevicePixelRatio
	return t.cfg.WindowOffset.Add(image.Pt(
		int(math.Round(p.X*r)),
		int(math.Round(p.Y*r)),
	))
}

// margin is the hit-test slop in device pixels at p.
func (t *Translator) margin(p image.Point) int {
	return int(math.Round(t.cfg.HandleMargin * t.ScaleAt(p)))
}

// Handle applies one event. Errors come from the selection model and leave it
// unchanged; events with no meaning in the current phase return nil.
func (t *Translator) Handle(ev Event) error {
	switch ev.Kind {
	case PointerMove:
		return t.move(ev)
	case PointerPress:
		return t.press(ev)
	case PointerRelease:
		return t.release(ev)
	case DoubleClick:
		if t.cfg.ConfirmOnDoubleClick && t.model.Phase() == selection.Ready {
			return t.model.Confirm()
		}
	case Scroll:
		t.scroll(ev.ScrollDelta)
	case KeyPress:
		return t.key(ev)
	}
	return nil
}

func (t *Translator) track(ev Event) image.Point {
	p := t.ToCapture(ev.Position)
	t.pointer, t.hasPointer = p, true
	return p
}

func (t *Translator) move(ev Event) error {
	p := t.track(ev)
	switch t.model.Phase() {
	case selection.Dragging, selection.Adjusting:
		return t.model.UpdateCursor(p)
	}
	return nil
}

func (t *Translator) press(ev Event) error {
	p := t.track(ev)
	phase := t.model.Phase()

	if ev.Button == ButtonRight {
		switch phase {
		case selection.Dragging, selection.Adjusting, selection.Ready:
			return t.model.Reset()
		}
		return nil
	}
	if ev.Button != ButtonLeft {
		return nil
	}

	switch phase {
	case selection.Idle:
		return t.model.BeginDrag(p)
	case selection.Ready:
		if h := HitTest(t.model.Rect(), p, t.margin(p)); h != selection.HandleNone {
			return t.model.BeginAdjust(h, p)
		}
		if err := t.model.Reset(); err != nil {
			return err
		}
		return t.model.BeginDrag(p)
	}
	return nil
}

func (t *Translator) release(ev Event) error {
	p := t.track(ev)
	if ev.Button != ButtonLeft {
		return nil
	}
	switch t.model.Phase() {
	case selection.Dragging, selection.Adjusting:
		if err := t.model.UpdateCursor(p); err != nil {
			return err
		}
		return t.model.EndDrag()
	}
	return nil
}

func (t *Translator) scroll(delta float64) {
	switch {
	case delta > 0:
		t.zoom = t.clampZoom(t.zoom + 1)
	case delta < 0:
		t.zoom = t.clampZoom(t.zoom - 1)
	}
}

func (t *Translator) clampZoom(z int) int {
	return min(max(z, t.cfg.MinZoom), t.cfg.MaxZoom)
}

func (t *Translator) key(ev Event) error {
	k := NormalizeKey(ev.Key)
	switch {
	case k == "":
		return nil
	case k == t.cfg.CancelKey:
		return t.model.Cancel()
	case t.isConfirm(k):
		return t.model.Confirm()
	case k == t.cfg.AspectLockKey:
		_, err := t.model.ToggleAspectLock()
		return err
	case k == t.cfg.FreezeKey:
		_, err := t.model.ToggleFreeze()
		return err
	}

	dx, dy, ok := arrow(k)
	if !ok || t.model.Phase() != selection.Ready {
		return nil
	}
	step := t.cfg.NudgeStep
	return t.model.Nudge(dx*step, dy*step, t.nudgeMode(ev.Modifiers))
}

func (t *Translator) isConfirm(k string) bool {
	for _, c := range t.cfg.ConfirmKeys {
		if c == k {
			return true
		}
	}
	return false
}

func (t *Translator) nudgeMode(mods Modifiers) selection.NudgeMode {
	switch {
	case mods.Has(ModShift):
		return selection.NudgeInverseResize
	case mods.Has(ModCtrl):
		return selection.NudgeResize
	default:
		return t.cfg.NudgeMode
	}
}

func arrow(k string) (dx, dy int, ok bool) {
	switch k {
	case "left":
		return -1, 0, true
	case "right":
		return 1, 0, true
	case "up":
		return 0, -1, true
	case "down":
		return 0, 1, true
	}
	return 0, 0, false
}

// HitTest returns the handle of r under p, with margin device pixels of slop.
// Corners win over edges and edges over the interior.
func HitTest(r image.Rectangle, p image.Point, margin int) selection.Handle {
	if r.Empty() {
		return selection.HandleNone
	}
	near := func(a, b int) bool { return abs(a-b) <= margin }
	within := func(v, lo, hi int) bool { return v >= lo-margin && v <= hi+margin }

	for _, h := range []selection.Handle{
		selection.HandleTopLeft, selection.HandleTopRight,
		selection.HandleBottomRight, selection.HandleBottomLeft,
	} {
		c := h.Point(r)
		if near(p.X, c.X) && near(p.Y, c.Y) {
			return h
		}
	}

	inX := within(p.X, r.Min.X, r.Max.X)
	inY := within(p.Y, r.Min.Y, r.Max.Y)
	switch {
	case inX && near(p.Y, r.Min.Y):
		return selection.HandleTop
	case inX && near(p.Y, r.Max.Y):
		return selection.HandleBottom
	case inY && near(p.X, r.Min.X):
		return selection.HandleLeft
	case inY && near(p.X, r.Max.X):
		return selection.HandleRight
	}

	if p.In(r) {
		return selection.HandleMove
	}
	return selection.HandleNone
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
