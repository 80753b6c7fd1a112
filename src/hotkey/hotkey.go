package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

var (
	ErrInvalidCombo = errors.New("invalid hotkey")
	ErrUnavailable  = errors.New("global keyboard hook unavailable")
)

// Modifier names and the keycode-table entries that count as that modifier.
var modifierKeys = map[string][]string{
	"ctrl":  {"ctrl", "lctrl", "rctrl"},
	"alt":   {"alt", "lalt", "ralt"},
	"shift": {"shift", "lshift", "rshift"},
	"cmd":   {"cmd", "lcmd", "rcmd"},
}

var aliases = map[string]string{
	"control": "ctrl",
	"option":  "alt",
	"win":     "cmd",
	"super":   "cmd",
	"meta":    "cmd",
	"command": "cmd",
	"return":  "enter",
	"escape":  "esc",
	"del":     "delete",
	"ins":     "insert",
	"pgup":    "pageup",
	"pgdn":    "pagedown",
}

type key struct {
	name  string
	codes []uint16
}

// Combo is a parsed hotkey: zero or more modifiers followed by one key.
type Combo struct {
	text string
	keys []key
}

func (c Combo) String() string { return c.text }

// Parse reads combos such as "Ctrl+Shift+S". Modifiers come first and exactly
// one non-modifier key ends the combo.
func Parse(combo string) (Combo, error) {
	text := strings.TrimSpace(combo)
	if text == "" {
		return Combo{}, fmt.Errorf("%w: empty", ErrInvalidCombo)
	}

	parts := strings.Split(strings.ToLower(text), "+")
	c := Combo{text: text}
	seen := make(map[string]bool)
	for i, part := range parts {
		name := strings.TrimSpace(part)
		if a, ok := aliases[name]; ok {
			name = a
		}
		if name == "" {
			return Combo{}, fmt.Errorf("%w: empty key in %q", ErrInvalidCombo, text)
		}
		if seen[name] {
			return Combo{}, fmt.Errorf("%w: %q repeated", ErrInvalidCombo, name)
		}
		seen[name] = true

		last := i == len(parts)-1
		_, isModifier := modifierKeys[name]
		switch {
		case isModifier && last:
			return Combo{}, fmt.Errorf("%w: %q has no main key", ErrInvalidCombo, text)
		case !isModifier && !last:
			return Combo{}, fmt.Errorf("%w: %q must be the last key", ErrInvalidCombo, name)
		}

		codes := keyCodes(name)
		if len(codes) == 0 {
			return Combo{}, fmt.Errorf("%w: unknown key %q", ErrInvalidCombo, name)
		}
		c.keys = append(c.keys, key{name: name, codes: codes})
	}
	return c, nil
}

func keyCodes(name string) []uint16 {
	names, ok := modifierKeys[name]
	if !ok {
		names = []string{name}
	}
	var codes []uint16
	for _, n := range names {
		code, ok := gohook.Keycode[n]
		if !ok || code == 0 {
			continue
		}
		dup := false
		for _, c := range codes {
			if c == code {
				dup = true
				break
			}
		}
		if !dup {
			codes = append(codes, code)
		}
	}
	return codes
}

// matcher tracks which combo keys are held and reports when all of them are.
type matcher struct {
	mu      sync.Mutex
	keys    []key
	pressed []bool
}

func newMatcher(c Combo) *matcher {
	return &matcher{keys: c.keys, pressed: make([]bool, len(c.keys))}
}

// press records a key press and returns true when the combo is complete.
// Pressed state resets on a match so holding the keys fires once.
func (m *matcher) press(code uint16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.mark(code, true) {
		return false
	}
	for _, p := range m.pressed {
		if !p {
			return false
		}
	}
	for i := range m.pressed {
		m.pressed[i] = false
	}
	return true
}

func (m *matcher) release(code uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mark(code, false)
}

func (m *matcher) mark(code uint16, down bool) bool {
	hit := false
	for i, k := range m.keys {
		for _, c := range k.codes {
			if c == code {
				m.pressed[i] = down
				hit = true
				break
			}
		}
	}
	return hit
}

// Listen blocks, invoking callback every time combo is pressed, until ctx is
// done or the hook stops delivering events.
func Listen(ctx context.Context, combo Combo, callback func()) error {
	if len(combo.keys) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidCombo)
	}

	evChan := gohook.Start()
	if evChan == nil {
		return ErrUnavailable
	}
	defer gohook.End()
	log.Printf("Hotkey: listening for %s", combo)

	m := newMatcher(combo)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-evChan:
			if !ok {
				log.Printf("Hotkey: event channel closed")
				return ErrUnavailable
			}
			switch ev.Kind {
			case gohook.KeyHold, gohook.KeyDown:
				if m.press(ev.Keycode) {
					log.Printf("Hotkey: %s pressed", combo)
					if callback != nil {
						callback()
					}
				}
			case gohook.KeyUp:
				m.release(ev.Keycode)
			}
		}
	}
}
