package screenshot

import (
	"context"
	"fmt"
	"image"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/kbinani/screenshot"

	"screen-cleave/src/canvas"
)

// Region represents a rectangle given as x,y,width,height
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// ParseRegion parses "x,y,w,h". Width and height must be positive.
func ParseRegion(s string) (Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Region{}, fmt.Errorf("invalid region %q: expected x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Region{}, fmt.Errorf("invalid region %q: %v", s, err)
		}
		v[i] = n
	}
	r := Region{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	if r.Width <= 0 || r.Height <= 0 {
		return Region{}, fmt.Errorf("invalid region dimensions: width=%d, height=%d", r.Width, r.Height)
	}
	return r, nil
}

// Monitor is one active display in desktop coordinates. Scale is the
// display's scale factor (1 = 96 DPI).
type Monitor struct {
	Index  int
	Bounds image.Rectangle
	Scale  float64
}

func (m Monitor) String() string {
	b := m.Bounds
	return fmt.Sprintf("%d: %dx%d at (%d,%d) scale %.2f", m.Index, b.Dx(), b.Dy(), b.Min.X, b.Min.Y, m.Scale)
}

// backend is the display API; tests replace it.
type backend struct {
	count   func() int
	bounds  func(i int) image.Rectangle
	scale   func(r image.Rectangle) float64
	capture func(r image.Rectangle) (*image.RGBA, error)
}

var displays = backend{
	count:   screenshot.NumActiveDisplays,
	bounds:  screenshot.GetDisplayBounds,
	scale:   monitorScale,
	capture: screenshot.CaptureRect,
}

// ListMonitors returns the active displays in enumeration order.
func ListMonitors() ([]Monitor, error) {
	return displays.list()
}

func (b backend) list() ([]Monitor, error) {
	n := b.count()
	if n == 0 {
		return nil, fmt.Errorf("no active displays found")
	}
	out := make([]Monitor, n)
	for i := 0; i < n; i++ {
		r := b.bounds(i)
		scale := 1.0
		if b.scale != nil {
			if v := b.scale(r); v > 0 {
				scale = v
			}
		}
		out[i] = Monitor{Index: i, Bounds: r, Scale: scale}
	}
	return out, nil
}

// Grabber captures every monitor, or only one when Monitor is set.
type Grabber struct {
	// Monitor restricts the grab to one display index; negative means all.
	Monitor int
	// Delay waits before grabbing so menus can be opened first.
	Delay time.Duration

	backend backend
}

func NewGrabber(monitor int, delay time.Duration) *Grabber {
	return &Grabber{Monitor: monitor, Delay: delay, backend: displays}
}

// Grab fetches one bitmap per monitor. Nothing is returned unless every
// selected monitor was captured.
func (g *Grabber) Grab(ctx context.Context) ([]canvas.MonitorDescriptor, map[int]*image.RGBA, error) {
	if g.Delay > 0 {
		log.Printf("Waiting %v before capture", g.Delay)
		timer := time.NewTimer(g.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, nil, ctx.Err()
		case <-timer.C:
		}
	}

	monitors, err := g.backend.list()
	if err != nil {
		return nil, nil, err
	}
	if g.Monitor >= 0 {
		if g.Monitor >= len(monitors) {
			return nil, nil, fmt.Errorf("monitor %d not found (%d active)", g.Monitor, len(monitors))
		}
		monitors = monitors[g.Monitor : g.Monitor+1]
	}

	descs := make([]canvas.MonitorDescriptor, 0, len(monitors))
	bitmaps := make(map[int]*image.RGBA, len(monitors))
	for _, m := range monitors {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		img, err := g.backend.capture(m.Bounds)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to capture monitor %d: %v", m.Index, err)
		}
		descs = append(descs, canvas.MonitorDescriptor{
			ID:     m.Index,
			Origin: m.Bounds.Min,
			Size:   m.Bounds.Size(),
			Scale:  m.Scale,
		})
		bitmaps[m.Index] = img
	}
	log.Printf("Captured %d monitor(s)", len(descs))
	return descs, bitmaps, nil
}
