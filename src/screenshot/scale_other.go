//go:build !windows

package screenshot

import "image"

// monitorScale reports no per-display factor; the overlay measures the
// window's own ratio from fyne instead.
func monitorScale(image.Rectangle) float64 { return 0 }
