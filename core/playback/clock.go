package playback

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// bytesPerFrame is the size of one decoded 16-bit stereo sample frame.
const bytesPerFrame = 4

type clockTrack struct {
	length time.Duration
	format Format
}

func (t clockTrack) Length() time.Duration { return t.length }

// ClockPlayer plays silently against the wall clock. It drives headless
// sessions, where the loop position only has to advance at real-time speed.
type ClockPlayer struct {
	mu       sync.Mutex
	now      func() time.Time
	override time.Duration
	volume   Volume
	playing  bool
	start    time.Time
	length   time.Duration
}

// NewClockPlayer creates a headless player. A positive loopLength takes
// precedence over the length decoded from the audio.
func NewClockPlayer(loopLength time.Duration) *ClockPlayer {
	return &ClockPlayer{
		now:      time.Now,
		override: loopLength,
		volume:   NewVolume(1),
	}
}

// WithClock replaces the time source, for tests.
func (p *ClockPlayer) WithClock(now func() time.Time) *ClockPlayer {
	p.now = now
	return p
}

func (p *ClockPlayer) Load(data []byte) (Track, error) {
	format := Sniff(data)
	if p.override > 0 {
		return clockTrack{length: p.override, format: format}, nil
	}
	if format != FormatMP3 {
		return nil, fmt.Errorf("%w: cannot measure %s audio, set song.loop_seconds", ErrUnknownLength, format)
	}
	length, err := mp3Length(data)
	if err != nil {
		return nil, err
	}
	return clockTrack{length: length, format: format}, nil
}

func mp3Length(data []byte) (time.Duration, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("decode mp3: %w", err)
	}
	if d.Length() <= 0 || d.SampleRate() <= 0 {
		return 0, fmt.Errorf("%w: mp3 stream reports no length", ErrUnknownLength)
	}
	frames := d.Length() / bytesPerFrame
	return time.Duration(frames) * time.Second / time.Duration(d.SampleRate()), nil
}

func (p *ClockPlayer) Play(t Track, onStarted func()) error {
	if t == nil || t.Length() <= 0 {
		return fmt.Errorf("%w: track has no length", ErrUnknownLength)
	}
	p.mu.Lock()
	p.length = t.Length()
	p.start = p.now()
	p.playing = true
	p.mu.Unlock()

	if onStarted != nil {
		onStarted()
	}
	return nil
}

func (p *ClockPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *ClockPlayer) LoopProgress() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return 0
	}
	return LoopFraction(p.now().Sub(p.start), p.length)
}

func (p *ClockPlayer) AdjustVolume(delta float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume.Adjust(delta)
}

func (p *ClockPlayer) ToggleMute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume.ToggleMute()
}

// Volume returns the current volume state.
func (p *ClockPlayer) Volume() Volume {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}
