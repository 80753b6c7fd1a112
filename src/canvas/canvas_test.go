package canvas

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// gradient encodes the pixel position so composites can be checked exactly.
func gradient(w, h int, tag uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: tag, A: 255})
		}
	}
	return img
}

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func dualLayout() (map[int]*image.RGBA, []MonitorDescriptor) {
	bitmaps := map[int]*image.RGBA{
		1: solid(1920, 1080, red),
		2: solid(1920, 1080, blue),
	}
	descs := []MonitorDescriptor{
		{ID: 1, Origin: image.Pt(0, 0), Size: image.Pt(1920, 1080), Scale: 1},
		{ID: 2, Origin: image.Pt(1920, 0), Size: image.Pt(1920, 1080), Scale: 1},
	}
	return bitmaps, descs
}

func TestBuildDualMonitor(t *testing.T) {
	bitmaps, descs := dualLayout()
	vc, err := Build(bitmaps, descs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got := vc.Size(); got != image.Pt(3840, 1080) {
		t.Errorf("Expected size 3840x1080, got %v", got)
	}
	if got := vc.Bounds().Min; got != image.Pt(0, 0) {
		t.Errorf("Expected bounds to start at origin, got %v", got)
	}
}

func TestBuildGeometryErrors(t *testing.T) {
	tests := []struct {
		name    string
		bitmaps map[int]*image.RGBA
		descs   []MonitorDescriptor
	}{
		{
			name:    "no monitors",
			bitmaps: map[int]*image.RGBA{},
		},
		{
			name:    "overlapping monitors",
			bitmaps: map[int]*image.RGBA{1: solid(100, 100, red), 2: solid(100, 100, blue)},
			descs: []MonitorDescriptor{
				{ID: 1, Origin: image.Pt(0, 0), Size: image.Pt(100, 100)},
				{ID: 2, Origin: image.Pt(50, 50), Size: image.Pt(100, 100)},
			},
		},
		{
			name:    "bitmap size mismatch",
			bitmaps: map[int]*image.RGBA{1: solid(90, 100, red)},
			descs:   []MonitorDescriptor{{ID: 1, Size: image.Pt(100, 100)}},
		},
		{
			name:    "missing bitmap",
			bitmaps: map[int]*image.RGBA{},
			descs:   []MonitorDescriptor{{ID: 1, Size: image.Pt(100, 100)}},
		},
		{
			name:    "duplicate id",
			bitmaps: map[int]*image.RGBA{1: solid(10, 10, red)},
			descs: []MonitorDescriptor{
				{ID: 1, Size: image.Pt(10, 10)},
				{ID: 1, Origin: image.Pt(10, 0), Size: image.Pt(10, 10)},
			},
		},
		{
			name:    "zero size",
			bitmaps: map[int]*image.RGBA{1: image.NewRGBA(image.Rect(0, 0, 0, 0))},
			descs:   []MonitorDescriptor{{ID: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.bitmaps, tt.descs)
			if !errors.Is(err, ErrGeometry) {
				t.Fatalf("Expected ErrGeometry, got %v", err)
			}
		})
	}
}

func TestBuildNormalizesNegativeOrigin(t *testing.T) {
	bitmaps := map[int]*image.RGBA{1: solid(100, 50, red), 2: solid(200, 100, blue)}
	descs := []MonitorDescriptor{
		{ID: 1, Origin: image.Pt(-100, 20), Size: image.Pt(100, 50), Scale: 2},
		{ID: 2, Origin: image.Pt(0, 0), Size: image.Pt(200, 100)},
	}
	vc, err := Build(bitmaps, descs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got := vc.Offset(); got != image.Pt(-100, 0) {
		t.Errorf("Expected offset (-100,0), got %v", got)
	}
	left, ok := vc.MonitorAt(image.Pt(10, 30))
	if !ok || left.ID != 1 {
		t.Fatalf("Expected monitor 1 at (10,30), got %+v %v", left, ok)
	}
	if left.Origin != image.Pt(0, 20) {
		t.Errorf("Expected monitor 1 at (0,20) in capture space, got %v", left.Origin)
	}
	if got := vc.ScaleAt(image.Pt(10, 30)); got != 2 {
		t.Errorf("Expected scale 2 on monitor 1, got %v", got)
	}
	if got := vc.ScaleAt(image.Pt(150, 50)); got != 1 {
		t.Errorf("Expected default scale 1 on monitor 2, got %v", got)
	}
	if got := vc.ToDesktop(image.Rect(0, 20, 10, 30)); got != image.Rect(-100, 20, -90, 30) {
		t.Errorf("Expected desktop rect (-100,20)-(-90,30), got %v", got)
	}
}

func TestSample(t *testing.T) {
	bitmaps := map[int]*image.RGBA{1: solid(100, 50, red), 2: solid(200, 100, blue)}
	descs := []MonitorDescriptor{
		{ID: 1, Origin: image.Pt(0, 0), Size: image.Pt(100, 50)},
		{ID: 2, Origin: image.Pt(100, 0), Size: image.Pt(200, 100)},
	}
	vc, err := Build(bitmaps, descs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	tests := []struct {
		name string
		p    image.Point
		want color.RGBA
	}{
		{"left monitor", image.Pt(5, 5), red},
		{"right monitor", image.Pt(150, 80), blue},
		{"gap below short monitor", image.Pt(50, 80), Sentinel},
		{"outside bounds", image.Pt(-1, 0), Sentinel},
		{"far outside", image.Pt(10000, 10000), Sentinel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vc.Sample(tt.p); got != tt.want {
				t.Errorf("Sample(%v) = %v, expected %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestCropFullBoundsReproducesUnion(t *testing.T) {
	bitmaps := map[int]*image.RGBA{
		1: gradient(40, 30, 1),
		2: gradient(20, 50, 2),
		3: gradient(30, 10, 3),
	}
	descs := []MonitorDescriptor{
		{ID: 1, Origin: image.Pt(-40, 0), Size: image.Pt(40, 30)},
		{ID: 2, Origin: image.Pt(0, -10), Size: image.Pt(20, 50)},
		{ID: 3, Origin: image.Pt(20, 5), Size: image.Pt(30, 10)},
	}
	vc, err := Build(bitmaps, descs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	full := vc.Crop(vc.Bounds())
	if full.Bounds().Size() != vc.Size() {
		t.Fatalf("Expected crop size %v, got %v", vc.Size(), full.Bounds().Size())
	}
	for _, m := range vc.Monitors() {
		src := bitmaps[m.ID]
		for y := 0; y < m.Size.Y; y++ {
			for x := 0; x < m.Size.X; x++ {
				want := src.RGBAAt(x, y)
				got := full.RGBAAt(m.Origin.X+x, m.Origin.Y+y)
				if got != want {
					t.Fatalf("monitor %d pixel (%d,%d): expected %v, got %v", m.ID, x, y, want, got)
				}
			}
		}
	}
}

func TestCropAcrossBoundary(t *testing.T) {
	bitmaps, descs := dualLayout()
	vc, err := Build(bitmaps, descs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	out := vc.Crop(image.Rect(1900, 500, 1950, 501))
	if got := out.Bounds().Size(); got != image.Pt(50, 1) {
		t.Fatalf("Expected 50x1 crop, got %v", got)
	}
	var fromLeft, fromRight int
	for x := 0; x < 50; x++ {
		switch out.RGBAAt(x, 0) {
		case red:
			fromLeft++
		case blue:
			fromRight++
		}
	}
	if fromLeft != 20 || fromRight != 30 {
		t.Errorf("Expected 20 left + 30 right pixels, got %d + %d", fromLeft, fromRight)
	}
}

func TestCropClampsAndCanonicalizes(t *testing.T) {
	bitmaps, descs := dualLayout()
	vc, err := Build(bitmaps, descs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	out := vc.Crop(image.Rectangle{Min: image.Pt(4000, 1200), Max: image.Pt(3800, 1000)})
	if got := out.Bounds().Size(); got != image.Pt(40, 80) {
		t.Errorf("Expected clamped 40x80 crop, got %v", got)
	}

	empty := vc.Crop(image.Rect(5000, 5000, 6000, 6000))
	if !empty.Bounds().Empty() {
		t.Errorf("Expected empty crop outside canvas, got %v", empty.Bounds())
	}
}
