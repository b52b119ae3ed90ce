package surface

import (
	"image"
	"sync"
)

// Memory is a display surface that keeps no pixels. It records what would
// have been drawn; headless sessions use it.
type Memory struct {
	mu     sync.Mutex
	w, h   int
	frame  int
	draws  int
	clears int
}

func NewMemory(width, height int) *Memory {
	return &Memory{w: width, h: height, frame: -1}
}

func (m *Memory) DrawFrame(index int, _ image.Image, _, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frame = index
	m.draws++
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
}

func (m *Memory) Resize(width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.w, m.h = width, height
}

func (m *Memory) Dimensions() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.w, m.h
}

// Frame is the last drawn index, -1 before the first draw.
func (m *Memory) Frame() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame
}

// Draws counts DrawFrame calls.
func (m *Memory) Draws() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draws
}
