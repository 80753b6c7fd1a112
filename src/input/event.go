package input

import "strings"

// Kind is the type of a raw host event.
type Kind int

const (
	PointerMove Kind = iota
	PointerPress
	PointerRelease
	DoubleClick
	Scroll
	KeyPress
	KeyRelease
)

func (k Kind) String() string {
	switch k {
	case PointerMove:
		return "pointer-move"
	case PointerPress:
		return "pointer-press"
	case PointerRelease:
		return "pointer-release"
	case DoubleClick:
		return "double-click"
	case Scroll:
		return "scroll"
	case KeyPress:
		return "key-press"
	case KeyRelease:
		return "key-release"
	default:
		return "unknown"
	}
}

type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)

// Modifiers is a bitmask of held modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

func (m Modifiers) Has(mod Modifiers) bool { return m&mod != 0 }

// Point is a window-logical position.
type Point struct {
	X, Y float64
}

// Event is a host input event in window-logical coordinates.
type Event struct {
	Kind        Kind
	Position    Point
	Button      Button
	Key         string
	ScrollDelta float64
	Modifiers   Modifiers
}

// NormalizeKey maps host key names onto the names used in configuration,
// e.g. "Esc" -> "escape", "Return" -> "enter", "LeftShift" -> "shift".
func NormalizeKey(name string) string {
	if name == " " {
		return "space"
	}
	k := strings.ToLower(strings.TrimSpace(name))
	k = strings.NewReplacer("_", "", "-", "", " ", "").Replace(k)

	switch k {
	case "esc", "escape":
		return "escape"
	case "return", "enter", "kpenter", "keypadenter":
		return "enter"
	case "space", "spacebar":
		return "space"
	case "shift", "leftshift", "rightshift", "lshift", "rshift":
		return "shift"
	case "ctrl", "control", "leftcontrol", "rightcontrol", "lctrl", "rctrl":
		return "ctrl"
	case "alt", "option", "leftalt", "rightalt", "lalt", "ralt", "altgr":
		return "alt"
	case "super", "cmd", "command", "win", "meta", "leftsuper", "rightsuper":
		return "super"
	case "left", "arrowleft", "leftarrow":
		return "left"
	case "right", "arrowright", "rightarrow":
		return "right"
	case "up", "arrowup", "uparrow":
		return "up"
	case "down", "arrowdown", "downarrow":
		return "down"
	}
	return k
}

// ParseKeyList splits a comma separated key list and normalizes each entry.
func ParseKeyList(s string) []string {
	var keys []string
	for _, part := range strings.Split(s, ",") {
		if part == "" {
			continue
		}
		if k := NormalizeKey(part); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
