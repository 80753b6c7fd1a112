package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"
)

const iconSize = 32

var (
	iconBorder = color.RGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
	iconFill   = color.RGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0x40}
	iconHandle = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// drawIcon paints a selection rectangle with corner handles.
func drawIcon() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	sel := image.Rect(4, 6, 28, 26)
	for y := sel.Min.Y; y < sel.Max.Y; y++ {
		for x := sel.Min.X; x < sel.Max.X; x++ {
			c := iconFill
			if x < sel.Min.X+2 || x >= sel.Max.X-2 || y < sel.Min.Y+2 || y >= sel.Max.Y-2 {
				c = iconBorder
			}
			img.SetRGBA(x, y, c)
		}
	}
	for _, p := range []image.Point{sel.Min, {sel.Max.X - 1, sel.Min.Y}, {sel.Min.X, sel.Max.Y - 1}, sel.Max.Sub(image.Pt(1, 1))} {
		for dy := -2; dy <= 2; dy++ {
			for dx := -2; dx <= 2; dx++ {
				c := iconHandle
				if dx == -2 || dx == 2 || dy == -2 || dy == 2 {
					c = iconBorder
				}
				img.SetRGBA(p.X+dx, p.Y+dy, c)
			}
		}
	}
	return img
}

// iconPNG returns the tray icon encoded as PNG.
func iconPNG() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, drawIcon()); err != nil {
		return nil
	}
	return buf.Bytes()
}

// wrapICO embeds a PNG in a single-entry ICO container, which the Windows
// tray requires.
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	// ICONDIR
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	dim := uint8(size)
	if size >= 256 {
		dim = 0
	}
	buf.Write([]byte{dim, dim, 0, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(32))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pngData)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(6+16))
	buf.Write(pngData)
	return buf.Bytes()
}

// Icon returns icon bytes in the format the platform tray expects.
func Icon() []byte {
	data := iconPNG()
	if runtime.GOOS == "windows" {
		return wrapICO(data, iconSize)
	}
	return data
}
