// Package surface sizes the display surface inside its host area.
package surface

import "math"

// Rect is a placement of the surface inside the host, in pixels.
type Rect struct {
	X, Y          int // left and top margin
	Width, Height int
}

// Fit scales an imgW x imgH frame to the largest size that fits the host
// while keeping its aspect ratio, centred. Degenerate inputs yield a zero Rect.
func Fit(imgW, imgH, hostW, hostH int) Rect {
	if imgW <= 0 || imgH <= 0 || hostW <= 0 || hostH <= 0 {
		return Rect{}
	}
	ratio := float64(imgW) / float64(imgH)

	var w, h int
	if scaleWidth := float64(hostH) * ratio; scaleWidth > float64(hostW) {
		w = hostW
		h = int(math.Floor(float64(hostW) / ratio))
	} else {
		w = int(math.Floor(scaleWidth))
		h = hostH
	}
	return Rect{
		X:      (hostW - w) / 2,
		Y:      (hostH - h) / 2,
		Width:  w,
		Height: h,
	}
}
