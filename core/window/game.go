// Package window hosts a session in a desktop window: ebiten drives the tick
// executor, draws the surface and plays the song.
package window

import (
	"context"
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"syncloop/core/input"
	"syncloop/core/session"
)

var keyCodes = map[ebiten.Key]input.KeyCode{
	ebiten.KeyNumpadSubtract: input.KeyNumpadSubtract,
	ebiten.KeyMinus:          input.KeyMinus,
	ebiten.KeyNumpadAdd:      input.KeyNumpadAdd,
	ebiten.KeyEqual:          input.KeyEqual,
	ebiten.KeyM:              input.KeyM,
}

// Options configures the window.
type Options struct {
	Title         string
	Width, Height int
	Fullscreen    bool
}

type game struct {
	ctx     context.Context
	session *session.Session
	surface *Surface
	overlay *Overlay

	hostW, hostH int
	pressed      []ebiten.Key
}

func (g *game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	g.session.HostResized(g.hostW, g.hostH)

	g.pressed = inpututil.AppendJustPressedKeys(g.pressed[:0])
	mods := modifiers()
	for _, k := range g.pressed {
		if code, ok := keyCodes[k]; ok {
			g.session.HandleKey(code, mods)
		}
	}

	g.session.Tick()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.surface.drawTo(screen)
	g.overlay.draw(screen)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.hostW, g.hostH = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

func modifiers() input.Modifiers {
	return input.Modifiers{
		Alt:   ebiten.IsKeyPressed(ebiten.KeyAlt),
		Ctrl:  ebiten.IsKeyPressed(ebiten.KeyControl),
		Meta:  ebiten.IsKeyPressed(ebiten.KeyMeta),
		Shift: ebiten.IsKeyPressed(ebiten.KeyShift),
	}
}

// Run starts s and blocks until the window is closed or ctx is cancelled.
// surface and overlay must be the ones s was built with.
func Run(ctx context.Context, s *session.Session, surface *Surface, overlay *Overlay, opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 800, 600
	}
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(opts.Fullscreen)

	s.Start(ctx)
	g := &game{ctx: ctx, session: s, surface: surface, overlay: overlay}
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
