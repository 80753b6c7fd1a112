package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"

	"golang.org/x/image/draw"
)

// ErrGeometry reports overlapping or inconsistent monitor geometry.
var ErrGeometry = errors.New("geometry error")

// Sentinel is returned by Sample for points outside every monitor.
var Sentinel = color.RGBA{}

// MonitorDescriptor describes one physical display. Origin is expressed in
// desktop coordinates when passed to Build (negative values are legal) and in
// capture space once stored on a VirtualCanvas.
type MonitorDescriptor struct {
	ID     int
	Origin image.Point
	Size   image.Point
	Scale  float64
}

// Rect returns the monitor rectangle in the descriptor's coordinate system.
func (m MonitorDescriptor) Rect() image.Rectangle {
	return image.Rectangle{Min: m.Origin, Max: m.Origin.Add(m.Size)}
}

type entry struct {
	desc   MonitorDescriptor
	bitmap *image.RGBA
}

// VirtualCanvas stitches per-monitor bitmaps into one capture space whose
// origin is the top-left corner of the bounding rectangle of all monitors.
type VirtualCanvas struct {
	entries []entry
	bounds  image.Rectangle
	offset  image.Point
}

// Build validates the monitor layout and returns the stitched canvas.
func Build(bitmaps map[int]*image.RGBA, descriptors []MonitorDescriptor) (*VirtualCanvas, error) {
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("%w: no monitors", ErrGeometry)
	}

	descs := make([]MonitorDescriptor, len(descriptors))
	copy(descs, descriptors)
	sort.Slice(descs, func(i, j int) bool { return descs[i].ID < descs[j].ID })

	var union image.Rectangle
	seen := make(map[int]bool, len(descs))
	for i, d := range descs {
		if seen[d.ID] {
			return nil, fmt.Errorf("%w: duplicate monitor id %d", ErrGeometry, d.ID)
		}
		seen[d.ID] = true

		if d.Size.X <= 0 || d.Size.Y <= 0 {
			return nil, fmt.Errorf("%w: monitor %d has size %dx%d", ErrGeometry, d.ID, d.Size.X, d.Size.Y)
		}
		bmp, ok := bitmaps[d.ID]
		if !ok || bmp == nil {
			return nil, fmt.Errorf("%w: no bitmap for monitor %d", ErrGeometry, d.ID)
		}
		if got := bmp.Bounds().Size(); got != d.Size {
			return nil, fmt.Errorf("%w: monitor %d bitmap is %dx%d, descriptor declares %dx%d",
				ErrGeometry, d.ID, got.X, got.Y, d.Size.X, d.Size.Y)
		}
		for _, other := range descs[:i] {
			if d.Rect().Overlaps(other.Rect()) {
				return nil, fmt.Errorf("%w: monitor %d overlaps monitor %d", ErrGeometry, d.ID, other.ID)
			}
		}
		union = union.Union(d.Rect())
	}

	vc := &VirtualCanvas{
		entries: make([]entry, 0, len(descs)),
		bounds:  image.Rectangle{Max: union.Size()},
		offset:  union.Min,
	}
	for _, d := range descs {
		d.Origin = d.Origin.Sub(union.Min)
		if d.Scale <= 0 {
			d.Scale = 1
		}
		vc.entries = append(vc.entries, entry{desc: d, bitmap: bitmaps[d.ID]})
	}
	return vc, nil
}

// Bounds returns the capture-space bounding rectangle; Min is always (0,0).
func (vc *VirtualCanvas) Bounds() image.Rectangle { return vc.bounds }

// Size returns the canvas size in device pixels.
func (vc *VirtualCanvas) Size() image.Point { return vc.bounds.Size() }

// Offset returns the desktop position of the capture-space origin.
func (vc *VirtualCanvas) Offset() image.Point { return vc.offset }

// ToDesktop converts a capture-space rectangle to desktop coordinates.
func (vc *VirtualCanvas) ToDesktop(r image.Rectangle) image.Rectangle { return r.Add(vc.offset) }

// Monitors returns the descriptors in capture space, ordered by id.
func (vc *VirtualCanvas) Monitors() []MonitorDescriptor {
	out := make([]MonitorDescriptor, len(vc.entries))
	for i, e := range vc.entries {
		out[i] = e.desc
	}
	return out
}

// MonitorAt returns the monitor containing p.
func (vc *VirtualCanvas) MonitorAt(p image.Point) (MonitorDescriptor, bool) {
	if e := vc.entryAt(p); e != nil {
		return e.desc, true
	}
	return MonitorDescriptor{}, false
}

// ScaleAt returns the scale factor of the monitor under p, or 1 in a gap.
func (vc *VirtualCanvas) ScaleAt(p image.Point) float64 {
	if e := vc.entryAt(p); e != nil {
		return e.desc.Scale
	}
	return 1
}

func (vc *VirtualCanvas) entryAt(p image.Point) *entry {
	if !p.In(vc.bounds) {
		return nil
	}
	for i := range vc.entries {
		if p.In(vc.entries[i].desc.Rect()) {
			return &vc.entries[i]
		}
	}
	return nil
}

// Sample returns the pixel at a capture-space point, or Sentinel when p is
// outside every monitor.
func (vc *VirtualCanvas) Sample(p image.Point) color.RGBA {
	e := vc.entryAt(p)
	if e == nil {
		return Sentinel
	}
	local := p.Sub(e.desc.Origin).Add(e.bitmap.Bounds().Min)
	return e.bitmap.RGBAAt(local.X, local.Y)
}

// Crop clamps r to the canvas and returns a bitmap covering it exactly,
// composited from every monitor it touches. Areas not covered by a monitor
// stay transparent.
func (vc *VirtualCanvas) Crop(r image.Rectangle) *image.RGBA {
	r = r.Canon().Intersect(vc.bounds)
	out := image.NewRGBA(image.Rectangle{Max: r.Size()})
	if r.Empty() {
		return out
	}
	for _, e := range vc.entries {
		part := r.Intersect(e.desc.Rect())
		if part.Empty() {
			continue
		}
		src := part.Min.Sub(e.desc.Origin).Add(e.bitmap.Bounds().Min)
		draw.Draw(out, part.Sub(r.Min), e.bitmap, src, draw.Src)
	}
	return out
}

// Image returns the whole canvas as one bitmap.
func (vc *VirtualCanvas) Image() *image.RGBA {
	return vc.Crop(vc.bounds)
}
