package window

import (
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// Overlay is the in-window status sink: a loading percentage until playback
// starts, or the fatal error message.
type Overlay struct {
	mu       sync.Mutex
	percent  int
	message  string
	finished bool
}

func NewOverlay() *Overlay {
	return &Overlay{}
}

func (o *Overlay) ReportProgress(percent int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.percent = percent
}

func (o *Overlay) ReportError(message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.message = message
}

func (o *Overlay) ReportLoadFinished() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = true
}

func (o *Overlay) text() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch {
	case o.message != "":
		return "Error: " + o.message
	case !o.finished:
		return fmt.Sprintf("Loading... %d%%", o.percent)
	}
	return ""
}

func (o *Overlay) draw(screen *ebiten.Image) {
	if t := o.text(); t != "" {
		ebitenutil.DebugPrint(screen, t)
	}
}
