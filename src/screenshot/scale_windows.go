//go:build windows

package screenshot

import (
	"image"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	shcore               = windows.NewLazySystemDLL("Shcore.dll")
	procMonitorFromRect  = user32.NewProc("MonitorFromRect")
	procGetDpiForMonitor = shcore.NewProc("GetDpiForMonitor")
)

const (
	monitorDefaultToNearest = 2
	mdtEffectiveDPI         = 0
	baseDPI                 = 96
)

// monitorScale asks the monitor covering r for its effective DPI. It returns
// 0 when the API is missing (before Windows 8.1) or the call fails.
func monitorScale(r image.Rectangle) float64 {
	if procMonitorFromRect.Find() != nil || procGetDpiForMonitor.Find() != nil {
		return 0
	}
	rect := windows.Rect{
		Left:   int32(r.Min.X),
		Top:    int32(r.Min.Y),
		Right:  int32(r.Max.X),
		Bottom: int32(r.Max.Y),
	}
	hmon, _, _ := procMonitorFromRect.Call(uintptr(unsafe.Pointer(&rect)), monitorDefaultToNearest)
	if hmon == 0 {
		return 0
	}
	var dpiX, dpiY uint32
	hr, _, _ := procGetDpiForMonitor.Call(hmon, mdtEffectiveDPI,
		uintptr(unsafe.Pointer(&dpiX)), uintptr(unsafe.Pointer(&dpiY)))
	if hr != 0 || dpiX == 0 {
		return 0
	}
	return float64(dpiX) / baseDPI
}
