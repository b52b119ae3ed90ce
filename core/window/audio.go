package window

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
	"go.uber.org/zap"

	"syncloop/core/playback"
)

// DefaultSampleRate is the rate every song is resampled to.
const DefaultSampleRate = 44100

// ebiten decoders emit 16-bit stereo
const bytesPerSample = 4

type stream interface {
	io.ReadSeeker
	Length() int64
}

type track struct {
	stream stream
	loop   int64 // bytes per loop
	length time.Duration
}

func (t *track) Length() time.Duration { return t.length }

// AudioPlayer plays a song on repeat through the ebiten audio context. All
// methods are called from the game loop.
type AudioPlayer struct {
	ctx      *audio.Context
	override time.Duration
	log      *zap.Logger

	player *audio.Player
	length time.Duration
	volume playback.Volume
}

// NewAudioPlayer opens the audio context, or reuses the process one. A
// positive loopLength cuts the loop shorter than the decoded song. Device
// failures surface later from the game loop.
func NewAudioPlayer(sampleRate int, loopLength time.Duration, log *zap.Logger) (*AudioPlayer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ctx := audio.CurrentContext()
	if ctx == nil {
		if sampleRate <= 0 {
			return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
		}
		ctx = audio.NewContext(sampleRate)
	}
	return &AudioPlayer{
		ctx:      ctx,
		override: loopLength,
		log:      log.Named("audio"),
		volume:   playback.NewVolume(1),
	}, nil
}

func (p *AudioPlayer) Load(data []byte) (playback.Track, error) {
	sr := p.ctx.SampleRate()
	r := bytes.NewReader(data)

	var (
		s   stream
		err error
	)
	switch format := playback.Sniff(data); format {
	case playback.FormatMP3:
		s, err = mp3.DecodeWithSampleRate(sr, r)
	case playback.FormatVorbis:
		s, err = vorbis.DecodeWithSampleRate(sr, r)
	case playback.FormatWAV:
		s, err = wav.DecodeWithSampleRate(sr, r)
	default:
		return nil, fmt.Errorf("unsupported audio format %q", format)
	}
	if err != nil {
		return nil, err
	}

	size := s.Length()
	if p.override > 0 {
		size = int64(p.override.Seconds()*float64(sr)) * bytesPerSample
	}
	if size <= 0 {
		return nil, playback.ErrUnknownLength
	}
	return &track{
		stream: s,
		loop:   size,
		length: time.Duration(size/bytesPerSample) * time.Second / time.Duration(sr),
	}, nil
}

func (p *AudioPlayer) Play(t playback.Track, onStarted func()) error {
	tr, ok := t.(*track)
	if !ok {
		return errors.New("track was not loaded by this player")
	}
	player, err := p.ctx.NewPlayer(audio.NewInfiniteLoop(tr.stream, tr.loop))
	if err != nil {
		return err
	}
	player.SetVolume(p.volume.Effective())
	player.Play()

	p.player = player
	p.length = tr.length
	p.log.Info("playing", zap.Duration("loop", tr.length))
	if onStarted != nil {
		onStarted()
	}
	return nil
}

func (p *AudioPlayer) IsPlaying() bool {
	return p.player != nil && p.player.IsPlaying()
}

func (p *AudioPlayer) LoopProgress() float64 {
	if p.player == nil {
		return 0
	}
	return playback.LoopFraction(p.player.Position(), p.length)
}

func (p *AudioPlayer) AdjustVolume(delta float64) {
	p.volume.Adjust(delta)
	p.apply()
}

func (p *AudioPlayer) ToggleMute() {
	p.volume.ToggleMute()
	p.apply()
}

func (p *AudioPlayer) apply() {
	if p.player != nil {
		p.player.SetVolume(p.volume.Effective())
	}
	p.log.Debug("volume", zap.Float64("level", p.volume.Level()), zap.Bool("muted", p.volume.Muted()))
}

// Volume returns the current volume state.
func (p *AudioPlayer) Volume() playback.Volume {
	return p.volume
}
