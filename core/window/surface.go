package window

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// Surface is an offscreen canvas the game draws centred in the window.
type Surface struct {
	canvas *ebiten.Image
	w, h   int
	cache  map[int]*ebiten.Image
}

func NewSurface() *Surface {
	return &Surface{cache: make(map[int]*ebiten.Image)}
}

// DrawFrame uploads img once per index and draws it scaled onto the canvas.
func (s *Surface) DrawFrame(index int, img image.Image, width, height int) {
	if s.canvas == nil || width <= 0 || height <= 0 {
		return
	}
	src, ok := s.cache[index]
	if !ok {
		src = ebiten.NewImageFromImage(img)
		s.cache[index] = src
	}
	b := src.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(width)/float64(b.Dx()), float64(height)/float64(b.Dy()))
	op.Filter = ebiten.FilterLinear
	s.canvas.DrawImage(src, op)
}

func (s *Surface) Clear() {
	if s.canvas != nil {
		s.canvas.Clear()
	}
}

func (s *Surface) Resize(width, height int) {
	if width == s.w && height == s.h {
		return
	}
	if s.canvas != nil {
		s.canvas.Deallocate()
		s.canvas = nil
	}
	s.w, s.h = width, height
	if width > 0 && height > 0 {
		s.canvas = ebiten.NewImage(width, height)
	}
}

func (s *Surface) Dimensions() (int, int) {
	return s.w, s.h
}

// drawTo blits the canvas centred on screen.
func (s *Surface) drawTo(screen *ebiten.Image) {
	if s.canvas == nil {
		return
	}
	sb := screen.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64((sb.Dx()-s.w)/2), float64((sb.Dy()-s.h)/2))
	screen.DrawImage(s.canvas, op)
}
