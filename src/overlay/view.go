package overlay

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"screen-cleave/src/input"
)

// view is the fullscreen widget that receives pointer input and holds the
// objects of the current frame.
type view struct {
	widget.BaseWidget

	host    *Host
	content *fyne.Container
	pressed bool
	last    fyne.Position
}

func newView(h *Host) *view {
	v := &view{host: h, content: container.NewWithoutLayout()}
	v.ExtendBaseWidget(v)
	return v
}

func (v *view) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.content)
}

func (v *view) Resize(size fyne.Size) {
	v.BaseWidget.Resize(size)
	v.host.updateScale()
}

func (v *view) Cursor() desktop.Cursor { return desktop.CrosshairCursor }

func (v *view) MouseIn(e *desktop.MouseEvent) {
	v.host.updateScale()
	v.pointer(input.PointerMove, e)
}

func (v *view) MouseMoved(e *desktop.MouseEvent) { v.pointer(input.PointerMove, e) }
func (v *view) MouseOut()                         {}

func (v *view) MouseDown(e *desktop.MouseEvent) {
	v.pressed = e.Button == desktop.MouseButtonPrimary
	v.pointer(input.PointerPress, e)
}

func (v *view) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		if !v.pressed {
			return
		}
		v.pressed = false
	}
	v.pointer(input.PointerRelease, e)
}

func (v *view) Dragged(e *fyne.DragEvent) {
	v.last = e.Position
	v.host.dispatch(input.Event{Kind: input.PointerMove, Position: point(e.Position), Modifiers: v.host.mods})
}

// DragEnd releases the drag if the driver did not deliver a MouseUp.
func (v *view) DragEnd() {
	if !v.pressed {
		return
	}
	v.pressed = false
	v.host.dispatch(input.Event{Kind: input.PointerRelease, Position: point(v.last), Button: input.ButtonLeft, Modifiers: v.host.mods})
}

func (v *view) DoubleTapped(e *fyne.PointEvent) {
	v.host.dispatch(input.Event{Kind: input.DoubleClick, Position: point(e.Position), Button: input.ButtonLeft, Modifiers: v.host.mods})
}

func (v *view) Scrolled(e *fyne.ScrollEvent) {
	v.host.dispatch(input.Event{Kind: input.Scroll, Position: point(e.Position), ScrollDelta: float64(e.Scrolled.DY), Modifiers: v.host.mods})
}

func (v *view) pointer(kind input.Kind, e *desktop.MouseEvent) {
	v.last = e.Position
	v.host.dispatch(input.Event{
		Kind:      kind,
		Position:  point(e.Position),
		Button:    button(e.Button),
		Modifiers: modifiers(e.Modifier),
	})
}

func point(p fyne.Position) input.Point {
	return input.Point{X: float64(p.X), Y: float64(p.Y)}
}

func button(b desktop.MouseButton) input.Button {
	switch b {
	case desktop.MouseButtonSecondary:
		return input.ButtonRight
	case desktop.MouseButtonTertiary:
		return input.ButtonMiddle
	default:
		return input.ButtonLeft
	}
}

func modifiers(m fyne.KeyModifier) input.Modifiers {
	var mods input.Modifiers
	if m&fyne.KeyModifierShift != 0 {
		mods |= input.ModShift
	}
	if m&fyne.KeyModifierControl != 0 {
		mods |= input.ModCtrl
	}
	if m&fyne.KeyModifierAlt != 0 {
		mods |= input.ModAlt
	}
	if m&fyne.KeyModifierSuper != 0 {
		mods |= input.ModSuper
	}
	return mods
}

// modifierBit returns the bit for a normalized modifier key name.
func modifierBit(key string) input.Modifiers {
	switch key {
	case "shift":
		return input.ModShift
	case "ctrl":
		return input.ModCtrl
	case "alt":
		return input.ModAlt
	case "super":
		return input.ModSuper
	}
	return 0
}
