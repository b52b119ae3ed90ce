// Package session owns one running loop: its configuration, collaborators,
// preloader and renderer. It replaces any process-wide player state.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"syncloop/core/beatsync"
	"syncloop/core/fetch"
	"syncloop/core/input"
	"syncloop/core/playback"
	"syncloop/core/preload"
	"syncloop/core/sink"
	"syncloop/core/surface"
	"syncloop/model"
)

// ErrNoAudio is the fatal-at-init condition: nothing can play the song.
var ErrNoAudio = errors.New("audio playback unavailable")

const keyQueueSize = 32

// Options wires a session to its collaborators.
type Options struct {
	Loop       model.Loop
	AssetBase  string
	Fetcher    fetch.Fetcher
	Player     playback.Player
	Surface    beatsync.Surface
	Sink       sink.Sink
	Logger     *zap.Logger
	VolumeStep float64
	// OnFrame observes every redraw, on the tick executor.
	OnFrame func(index int)
}

type keyEvent struct {
	code input.KeyCode
	mods input.Modifiers
}

// Session runs one loop. Tick, HandleKey and HostResized must be called from
// a single goroutine, the tick executor; Start and SubmitKey may be called
// from anywhere.
type Session struct {
	ID string

	loop    model.Loop
	player  playback.Player
	surface beatsync.Surface
	sink    sink.Sink
	log     *zap.Logger
	step    float64

	preloader *preload.Preloader
	renderer  *beatsync.Renderer

	startOnce sync.Once
	ready     chan *preload.Resources
	failed    chan error
	keys      chan keyEvent

	// tick executor state
	resources    *preload.Resources
	hostW, hostH int
	err          error
}

// New validates the loop and builds a session. It fails with ErrNoAudio,
// after reporting it to the sink, when no player is available.
func New(opts Options) (*Session, error) {
	if opts.Sink == nil {
		opts.Sink = sink.NewLog(opts.Logger)
	}
	if opts.Player == nil {
		opts.Sink.ReportError(ErrNoAudio.Error())
		return nil, ErrNoAudio
	}
	if err := opts.Loop.Validate(); err != nil {
		opts.Sink.ReportError(err.Error())
		return nil, err
	}
	if opts.Fetcher == nil || opts.Surface == nil {
		return nil, errors.New("session needs a fetcher and a surface")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.VolumeStep <= 0 {
		opts.VolumeStep = playback.DefaultVolumeStep
	}

	id := uuid.New().String()
	log := opts.Logger.With(zap.String("session", id), zap.String("loop", opts.Loop.Name))

	s := &Session{
		ID:      id,
		loop:    opts.Loop,
		player:  opts.Player,
		surface: opts.Surface,
		sink:    opts.Sink,
		log:     log,
		step:    opts.VolumeStep,
		ready:   make(chan *preload.Resources, 1),
		failed:  make(chan error, 1),
		keys:    make(chan keyEvent, keyQueueSize),
	}

	s.renderer = beatsync.NewRenderer(opts.Loop, opts.Surface, opts.Player, log)
	s.renderer.OnFrame = opts.OnFrame

	s.preloader = preload.New(opts.Loop, opts.AssetBase, opts.Fetcher, log)
	s.preloader.OnProgress = opts.Sink.ReportProgress
	s.preloader.OnReady = func(res *preload.Resources) {
		s.ready <- res
	}
	return s, nil
}

// Start begins loading in the background. Later calls do nothing.
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go func() {
			if _, err := s.preloader.Load(ctx); err != nil {
				s.failed <- err
			}
		}()
	})
}

// Tick runs one display refresh: it applies a finished or failed load, any
// queued remote key presses, then lets the renderer draw. It reports whether
// the surface was redrawn.
func (s *Session) Tick() bool {
	select {
	case res := <-s.ready:
		s.activate(res)
	case err := <-s.failed:
		s.fail(err)
	default:
	}

	for {
		select {
		case ev := <-s.keys:
			s.HandleKey(ev.code, ev.mods)
			continue
		default:
		}
		break
	}

	return s.renderer.Tick()
}

func (s *Session) activate(res *preload.Resources) {
	if s.err != nil {
		return
	}
	track, err := s.player.Load(res.Audio)
	if err != nil {
		s.fail(fmt.Errorf("decode song: %w", err))
		return
	}

	s.resources = res
	s.renderer.Install(res.Frames)
	s.refit()

	if err := s.player.Play(track, s.sink.ReportLoadFinished); err != nil {
		s.fail(fmt.Errorf("start playback: %w", err))
		return
	}
	s.log.Info("loop playing", zap.Duration("length", track.Length()))
}

func (s *Session) fail(err error) {
	if s.err != nil {
		return
	}
	s.err = err
	s.log.Error("loop failed", zap.Error(err))
	s.sink.ReportError(err.Error())
}

// Err is the fatal error that stopped the loading, if any.
func (s *Session) Err() error {
	return s.err
}

// Ready reports whether the assets are loaded and playback was started.
func (s *Session) Ready() bool {
	return s.resources != nil && s.err == nil
}

// State is the renderer state.
func (s *Session) State() beatsync.State {
	return s.renderer.State()
}

// LastFrame is the frame currently on the surface.
func (s *Session) LastFrame() int {
	return s.renderer.LastFrame()
}

// Progress is the aggregate load progress in [0,1].
func (s *Session) Progress() float64 {
	return s.preloader.Tracker().Progress()
}

// HostResized records the size of the area hosting the surface and refits
// the surface once frames are known.
func (s *Session) HostResized(width, height int) {
	if width == s.hostW && height == s.hostH {
		return
	}
	s.hostW, s.hostH = width, height
	s.refit()
}

func (s *Session) refit() {
	if s.resources == nil || len(s.resources.Frames) == 0 || s.hostW <= 0 || s.hostH <= 0 {
		return
	}
	b := s.resources.Frames[0].Bounds()
	r := surface.Fit(b.Dx(), b.Dy(), s.hostW, s.hostH)
	s.surface.Resize(r.Width, r.Height)
	s.renderer.Invalidate()
	s.log.Debug("surface resized", zap.Int("width", r.Width), zap.Int("height", r.Height))
}

// HandleKey applies a key press and reports whether it was consumed.
func (s *Session) HandleKey(code input.KeyCode, mods input.Modifiers) bool {
	action, consumed := input.Resolve(code, mods)
	if !consumed {
		return false
	}
	input.Apply(action, s.player, s.step)
	s.log.Debug("key action", zap.Stringer("action", action))
	return true
}

// SubmitKey queues a key press from another goroutine; it is applied on the
// next tick. It returns false when the queue is full.
func (s *Session) SubmitKey(code input.KeyCode, mods input.Modifiers) bool {
	select {
	case s.keys <- keyEvent{code: code, mods: mods}:
		return true
	default:
		return false
	}
}

// Run is the headless scheduler: it ticks every interval until ctx ends or
// loading fails. Ticks are best effort; a slow tick delays, and the ticker
// drops, the following ones.
func (s *Session) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second / 60
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick()
			if s.err != nil {
				return s.err
			}
		}
	}
}
