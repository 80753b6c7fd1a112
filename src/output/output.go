package output

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"screen-cleave/src/clipboard"
)

const (
	DefaultFilename = "cleave"
	timestampLayout = "2006-01-02-15-04-05"
)

// Filter is the resampling filter used when scaling.
type Filter int

const (
	Nearest Filter = iota
	Triangle
	CatmullRom
	Gaussian
	Lanczos3
)

var filterNames = map[string]Filter{
	"nearest":    Nearest,
	"triangle":   Triangle,
	"catmullrom": CatmullRom,
	"gaussian":   Gaussian,
	"lanczos3":   Lanczos3,
}

func ParseFilter(s string) (Filter, error) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(strings.TrimSpace(s)))
	if key == "" {
		return Nearest, nil
	}
	f, ok := filterNames[key]
	if !ok {
		return Nearest, fmt.Errorf("unknown filter %q", s)
	}
	return f, nil
}

func (f Filter) interpolation() resize.InterpolationFunction {
	switch f {
	case Triangle:
		return resize.Bilinear
	case CatmullRom:
		return resize.Bicubic
	case Gaussian:
		return resize.MitchellNetravali
	case Lanczos3:
		return resize.Lanczos3
	default:
		return resize.NearestNeighbor
	}
}

// ParseFormat normalizes an image format name, returning "" for unknown ones.
func ParseFormat(s string) string {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "png":
		return "png"
	case "jpg", "jpeg":
		return "jpeg"
	case "gif":
		return "gif"
	case "bmp":
		return "bmp"
	case "tif", "tiff":
		return "tiff"
	}
	return ""
}

func extension(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}

type Options struct {
	// Format is used for directory targets and paths without a known
	// extension; empty means png.
	Format string
	// Filename is the prefix of generated file names.
	Filename    string
	Scale       float64
	Filter      Filter
	JPEGQuality int
}

// Dispatcher delivers confirmed captures to the clipboard or to disk.
type Dispatcher struct {
	opts Options

	writeClipboard func(png []byte) error
	now            func() time.Time
}

func NewDispatcher(opts Options) *Dispatcher {
	if opts.Filename == "" {
		opts.Filename = DefaultFilename
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = 90
	}
	return &Dispatcher{
		opts:           opts,
		writeClipboard: clipboard.WriteImage,
		now:            time.Now,
	}
}

// Deliver scales the image if configured and writes it to the request target.
func (d *Dispatcher) Deliver(req Request) error {
	if req.Image == nil || req.Image.Bounds().Empty() {
		return fmt.Errorf("empty image")
	}
	img := d.scale(req.Image)

	switch req.Target.Kind {
	case Clipboard:
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("failed to encode image as PNG: %w", err)
		}
		if err := d.writeClipboard(buf.Bytes()); err != nil {
			return fmt.Errorf("clipboard error: %w", err)
		}
		log.Printf("Copied %dx%d image to clipboard", img.Bounds().Dx(), img.Bounds().Dy())
		return nil
	case File:
		path, format, err := d.resolvePath(req.Target.Path)
		if err != nil {
			return err
		}
		if err := writeFile(path, img, format, d.opts.JPEGQuality); err != nil {
			return err
		}
		log.Printf("Saved %dx%d image to %s", img.Bounds().Dx(), img.Bounds().Dy(), path)
		return nil
	default:
		return fmt.Errorf("unknown target %v", req.Target.Kind)
	}
}

func (d *Dispatcher) scale(img *image.RGBA) image.Image {
	s := d.opts.Scale
	if s <= 0 || s == 1 {
		return img
	}
	b := img.Bounds()
	w := uint(max(1, math.Round(float64(b.Dx())*s)))
	h := uint(max(1, math.Round(float64(b.Dy())*s)))
	return resize.Resize(w, h, img, d.opts.Filter.interpolation())
}

// resolvePath picks the output file and format. A directory (existing, empty
// path, or trailing separator) gets a timestamped file name.
func (d *Dispatcher) resolvePath(path string) (string, string, error) {
	format := ParseFormat(d.opts.Format)

	isDir := path == "" || strings.HasSuffix(path, string(os.PathSeparator)) || strings.HasSuffix(path, "/")
	if !isDir {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			isDir = true
		}
	}

	if isDir {
		if path == "" {
			path = "."
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return "", "", fmt.Errorf("failed to create output directory: %w", err)
		}
		if format == "" {
			format = "png"
		}
		name := fmt.Sprintf("%s-%s.%s", d.opts.Filename, d.now().Format(timestampLayout), extension(format))
		return filepath.Join(path, name), format, nil
	}

	if format == "" {
		format = ParseFormat(filepath.Ext(path))
	}
	if format == "" {
		format = "png"
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return path, format, nil
}

func writeFile(path string, img image.Image, format string, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Encode(f, img, format, quality); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// Encode writes img in the named format.
func Encode(w io.Writer, img image.Image, format string, quality int) error {
	var err error
	switch format {
	case "png":
		err = png.Encode(w, img)
	case "jpeg":
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case "gif":
		err = gif.Encode(w, img, nil)
	case "bmp":
		err = bmp.Encode(w, img)
	case "tiff":
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode image as %s: %w", format, err)
	}
	return nil
}
