package tray

import (
	"log"
	"sync"

	"github.com/getlantern/systray"
)

// Config describes the tray menu.
type Config struct {
	Title     string
	Tooltip   string
	OnCapture func()
	OnExit    func()
}

// Tray owns the system tray icon and its Capture / Quit menu.
type Tray struct {
	cfg      Config
	ready    chan struct{}
	quit     chan struct{}
	quitOnce sync.Once
}

func New(cfg Config) *Tray {
	if cfg.Title == "" {
		cfg.Title = "Screen Cleave"
	}
	if cfg.Tooltip == "" {
		cfg.Tooltip = cfg.Title
	}
	return &Tray{cfg: cfg, ready: make(chan struct{}), quit: make(chan struct{})}
}

// Run blocks until Quit is called or the Quit menu item is chosen. On macOS
// it must run on the main thread.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the icon and makes Run return. It is safe to call before the
// tray is ready.
func (t *Tray) Quit() {
	t.quitOnce.Do(func() { close(t.quit) })
	select {
	case <-t.ready:
		systray.Quit()
	default:
	}
}

// SetTooltip updates the hover text once the tray is up.
func (t *Tray) SetTooltip(text string) {
	select {
	case <-t.ready:
		systray.SetTooltip(text)
	default:
	}
}

func (t *Tray) onReady() {
	systray.SetIcon(Icon())
	systray.SetTitle(t.cfg.Title)
	systray.SetTooltip(t.cfg.Tooltip)

	mCapture := systray.AddMenuItem("Capture", "Select a screen region")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Stop listening for the hotkey")
	close(t.ready)

	select {
	case <-t.quit:
		systray.Quit()
		return
	default:
	}

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				log.Printf("Tray: capture requested")
				if t.cfg.OnCapture != nil {
					t.cfg.OnCapture()
				}
			case <-mQuit.ClickedCh:
				log.Printf("Tray: quit requested")
				t.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	if t.cfg.OnExit != nil {
		t.cfg.OnExit()
	}
}
