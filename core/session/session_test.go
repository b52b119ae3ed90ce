package session

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syncloop/core/fetch"
	"syncloop/core/input"
	"syncloop/core/playback"
	"syncloop/model"
)

type memFetcher struct {
	failURL string
}

func (f *memFetcher) FetchBinary(_ context.Context, url string, onProgress fetch.ProgressFunc) ([]byte, error) {
	if url == f.failURL {
		return nil, errors.New("404")
	}
	onProgress(1)
	return []byte("song"), nil
}

func (f *memFetcher) FetchImage(_ context.Context, url string) (image.Image, error) {
	if url == f.failURL {
		return nil, errors.New("404")
	}
	return image.NewRGBA(image.Rect(0, 0, 200, 100)), nil
}

type fakeTrack struct{}

func (fakeTrack) Length() time.Duration { return 4 * time.Second }

type fakePlayer struct {
	playing  bool
	progress float64
	loadErr  error
	volume   float64
	muted    bool
}

func (p *fakePlayer) Load([]byte) (playback.Track, error) {
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	return fakeTrack{}, nil
}

func (p *fakePlayer) Play(_ playback.Track, onStarted func()) error {
	p.playing = true
	onStarted()
	return nil
}

func (p *fakePlayer) IsPlaying() bool { return p.playing }
func (p *fakePlayer) LoopProgress() float64 { return p.progress }
func (p *fakePlayer) AdjustVolume(delta float64) { p.volume += delta }
func (p *fakePlayer) ToggleMute() { p.muted = !p.muted }

type fakeSurface struct {
	w, h  int
	drawn []int
}

func (s *fakeSurface) DrawFrame(index int, _ image.Image, _, _ int) {
	s.drawn = append(s.drawn, index)
}

func (s *fakeSurface) Clear() {}

func (s *fakeSurface) Resize(width, height int) {
	s.w, s.h = width, height
}

func (s *fakeSurface) Dimensions() (int, int) {
	return s.w, s.h
}

type recordingSink struct {
	mu       sync.Mutex
	progress []int
	errors   []string
	finished int
}

func (r *recordingSink) ReportProgress(p int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
}

func (r *recordingSink) ReportError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

func (r *recordingSink) ReportLoadFinished() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished++
}

func (r *recordingSink) snapshot() ([]int, []string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.progress...), append([]string(nil), r.errors...), r.finished
}

func testLoop() model.Loop {
	return model.Loop{
		Name:      "test",
		Song:      model.Song{File: "song.mp3", BeatsPerLoop: 4},
		Animation: model.Animation{Pattern: "f%FRAME%.png", Frames: 4, BeatsPerLoop: 4},
	}
}

func newSession(t *testing.T, f *memFetcher, p *fakePlayer) (*Session, *fakeSurface, *recordingSink) {
	t.Helper()
	surf := &fakeSurface{}
	rec := &recordingSink{}
	s, err := New(Options{
		Loop:      testLoop(),
		AssetBase: "/assets",
		Fetcher:   f,
		Player:    p,
		Surface:   surf,
		Sink:      rec,
	})
	require.NoError(t, err)
	return s, surf, rec
}

func TestNewWithoutPlayerIsFatal(t *testing.T) {
	rec := &recordingSink{}
	s, err := New(Options{Loop: testLoop(), Fetcher: &memFetcher{}, Surface: &fakeSurface{}, Sink: rec})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrNoAudio)

	_, errs, finished := rec.snapshot()
	assert.Equal(t, []string{"audio playback unavailable"}, errs)
	assert.Zero(t, finished)
}

func TestNewRejectsInvalidLoop(t *testing.T) {
	loop := testLoop()
	loop.Animation.Frames = 0
	_, err := New(Options{Loop: loop, Fetcher: &memFetcher{}, Player: &fakePlayer{}, Surface: &fakeSurface{}, Sink: &recordingSink{}})
	assert.ErrorIs(t, err, model.ErrInvalidLoop)
}

func TestSessionBecomesReadyAndDraws(t *testing.T) {
	player := &fakePlayer{progress: 0.5}
	s, surf, rec := newSession(t, &memFetcher{}, player)
	assert.NotEmpty(t, s.ID)

	s.HostResized(400, 400)
	assert.False(t, s.Tick(), "nothing loaded before Start")

	s.Start(context.Background())
	require.Eventually(t, func() bool {
		s.Tick()
		return s.Ready()
	}, time.Second, time.Millisecond)

	assert.True(t, player.playing)
	assert.Equal(t, 400, surf.w)
	assert.Equal(t, 200, surf.h)
	assert.Equal(t, []int{2}, surf.drawn, "half way through a 4 frame loop")
	assert.Equal(t, 2, s.LastFrame())
	assert.Equal(t, 1.0, s.Progress())

	progress, errs, finished := rec.snapshot()
	assert.Empty(t, errs)
	assert.Equal(t, 1, finished)
	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])
	assert.IsNonDecreasing(t, progress)

	assert.False(t, s.Tick(), "same frame is not redrawn")
	s.HostResized(100, 300)
	assert.Equal(t, 100, surf.w)
	assert.Equal(t, 50, surf.h)
	assert.True(t, s.Tick(), "resize forces a redraw")
}

func TestSessionReportsLoadFailureOnce(t *testing.T) {
	f := &memFetcher{failURL: "/assets/f3.png"}
	s, _, rec := newSession(t, f, &fakePlayer{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Start(ctx)
	err := s.Run(ctx, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 3")

	s.Tick()
	_, errs, finished := rec.snapshot()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "/assets/f3.png")
	assert.Zero(t, finished)
	assert.False(t, s.Ready())
}

func TestSessionDecodeFailureIsReported(t *testing.T) {
	player := &fakePlayer{loadErr: errors.New("not audio")}
	s, surf, rec := newSession(t, &memFetcher{}, player)
	s.HostResized(10, 10)
	s.Start(context.Background())

	require.Eventually(t, func() bool {
		s.Tick()
		return s.Err() != nil
	}, time.Second, time.Millisecond)

	_, errs, _ := rec.snapshot()
	assert.Equal(t, []string{"decode song: not audio"}, errs)
	assert.False(t, player.playing)
	assert.Empty(t, surf.drawn)
}

func TestHandleKey(t *testing.T) {
	player := &fakePlayer{}
	s, _, _ := newSession(t, &memFetcher{}, player)

	assert.True(t, s.HandleKey(input.KeyEqual, input.Modifiers{}))
	assert.InDelta(t, playback.DefaultVolumeStep, player.volume, 1e-9)
	assert.True(t, s.HandleKey(input.KeyNumpadSubtract, input.Modifiers{}))
	assert.InDelta(t, 0, player.volume, 1e-9)
	assert.True(t, s.HandleKey(input.KeyM, input.Modifiers{}))
	assert.True(t, player.muted)

	assert.False(t, s.HandleKey(input.KeyM, input.Modifiers{Ctrl: true}))
	assert.True(t, player.muted)
	assert.False(t, s.HandleKey(input.KeyCode(65), input.Modifiers{}))
}

func TestSubmitKeyAppliedOnTick(t *testing.T) {
	player := &fakePlayer{}
	s, _, _ := newSession(t, &memFetcher{}, player)

	require.True(t, s.SubmitKey(input.KeyM, input.Modifiers{}))
	assert.False(t, player.muted, "queued until the next tick")
	s.Tick()
	assert.True(t, player.muted)
}

func TestRunStopsWithContext(t *testing.T) {
	s, _, _ := newSession(t, &memFetcher{}, &fakePlayer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Run(ctx, time.Millisecond), context.Canceled)
}
