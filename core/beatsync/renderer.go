package beatsync

import (
	"image"

	"go.uber.org/zap"

	"syncloop/model"
)

// Surface is the display the renderer draws on.
type Surface interface {
	// DrawFrame draws frame index, scaled to width x height pixels.
	DrawFrame(index int, img image.Image, width, height int)
	Clear()
	Resize(width, height int)
	Dimensions() (width, height int)
}

// Clock is the part of the audio player the renderer reads.
type Clock interface {
	IsPlaying() bool
	LoopProgress() float64
}

// State is the renderer's lifecycle position.
type State int

const (
	// Waiting: no frames installed or playback not started.
	Waiting State = iota
	// Running: every tick evaluates the frame formula.
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "waiting"
}

// Renderer keeps one surface phase-locked to the audio loop. It is not safe
// for concurrent use; Tick and Install belong to the tick executor.
type Renderer struct {
	loop    model.Loop
	surface Surface
	clock   Clock
	log     *zap.Logger

	frames    []image.Image
	lastFrame int
	state     State

	// OnFrame, when set, observes every redraw.
	OnFrame func(index int)
}

// NewRenderer creates a renderer in the Waiting state. loop must be valid.
func NewRenderer(loop model.Loop, surface Surface, clock Clock, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		loop:      loop,
		surface:   surface,
		clock:     clock,
		log:       log.Named("renderer"),
		lastFrame: NoFrame,
		state:     Waiting,
	}
}

// Install hands the decoded frames to the renderer. It must hold exactly one
// image per animation frame.
func (r *Renderer) Install(frames []image.Image) {
	if len(frames) != r.loop.Animation.Frames {
		r.log.Warn("frame count mismatch, ignoring install",
			zap.Int("want", r.loop.Animation.Frames),
			zap.Int("got", len(frames)))
		return
	}
	r.frames = frames
	r.lastFrame = NoFrame
}

// Invalidate forces the next tick to redraw, e.g. after the surface was resized.
func (r *Renderer) Invalidate() {
	r.lastFrame = NoFrame
}

// State reports whether the renderer has started producing output.
func (r *Renderer) State() State {
	return r.state
}

// LastFrame is the index currently on the surface, or NoFrame.
func (r *Renderer) LastFrame() int {
	return r.lastFrame
}

// Tick evaluates one display refresh and reports whether it redrew.
func (r *Renderer) Tick() bool {
	if r.frames == nil || !r.clock.IsPlaying() {
		return false
	}
	if r.state == Waiting {
		r.state = Running
		r.log.Debug("renderer running")
	}

	frame := FrameIndex(r.loop.Animation, r.loop.Song.BeatsPerLoop, r.clock.LoopProgress())
	if frame == r.lastFrame {
		return false
	}
	r.lastFrame = frame

	w, h := r.surface.Dimensions()
	r.surface.Clear()
	r.surface.DrawFrame(frame, r.frames[frame], w, h)
	if r.OnFrame != nil {
		r.OnFrame(frame)
	}
	return true
}
