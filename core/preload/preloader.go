// Package preload fetches every asset of a loop concurrently and signals
// readiness once, after the last one arrives.
package preload

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"syncloop/core/fetch"
	"syncloop/logger"
	"syncloop/model"
)

// ErrFetch wraps every failed asset fetch.
var ErrFetch = errors.New("asset fetch failed")

// AudioSlot is the tracker slot reserved for the song.
const AudioSlot = 0

// Resources is the complete asset set of a loop.
type Resources struct {
	Audio  []byte        // encoded, decoded later by the player
	Frames []image.Image // zero-based frame index
}

// Preloader loads one loop's assets.
type Preloader struct {
	loop    model.Loop
	base    string
	fetcher fetch.Fetcher
	log     *zap.Logger

	// OnProgress receives the aggregate percentage whenever its integer value
	// changes. Calls are serialized and non-decreasing.
	OnProgress func(percent int)
	// OnReady fires exactly once, when every slot has completed.
	OnReady func(*Resources)

	tracker  *Tracker
	reportMu sync.Mutex
}

// New creates a preloader for loop, resolving locators against base.
func New(loop model.Loop, base string, fetcher fetch.Fetcher, log *zap.Logger) *Preloader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Preloader{
		loop:    loop,
		base:    base,
		fetcher: fetcher,
		log:     log.Named("preload"),
		tracker: NewTracker(loop.ResourceCount()),
	}
}

// Tracker exposes the progress slots.
func (p *Preloader) Tracker() *Tracker {
	return p.tracker
}

// Load fetches the song and every frame concurrently and blocks until all
// of them completed or the first one failed. A failure cancels the remaining
// fetches and is returned wrapped in ErrFetch; nothing is retried.
func (p *Preloader) Load(ctx context.Context) (*Resources, error) {
	frames := p.loop.Animation.Frames
	res := &Resources{Frames: make([]image.Image, frames)}
	start := time.Now()

	p.log.Info("preload started",
		zap.String("loop", p.loop.Name),
		zap.Int("resources", p.loop.ResourceCount()))
	p.report()

	g, gctx := errgroup.WithContext(ctx)

	songURL := p.loop.SongURL(p.base)
	g.Go(func() error {
		data, err := p.fetcher.FetchBinary(gctx, songURL, func(fraction float64) {
			p.tracker.Update(AudioSlot, fraction)
			p.report()
		})
		if err != nil {
			return fmt.Errorf("%w: song %s: %w", ErrFetch, songURL, err)
		}
		res.Audio = data
		p.log.Debug("song loaded", zap.String("url", songURL), logger.Bytes("size", int64(len(data))))
		p.complete(AudioSlot, res)
		return nil
	})

	for i := 0; i < frames; i++ {
		url := p.loop.FrameURL(p.base, i)
		g.Go(func() error {
			img, err := p.fetcher.FetchImage(gctx, url)
			if err != nil {
				return fmt.Errorf("%w: frame %d %s: %w", ErrFetch, i+1, url, err)
			}
			res.Frames[i] = img
			p.complete(i+1, res)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.log.Error("preload failed", zap.Error(err))
		return nil, err
	}

	p.log.Info("preload finished",
		zap.String("loop", p.loop.Name),
		zap.Duration("took", time.Since(start)))
	return res, nil
}

func (p *Preloader) complete(slot int, res *Resources) {
	ready := p.tracker.Complete(slot)
	p.report()
	if ready && p.OnReady != nil {
		p.OnReady(res)
	}
}

func (p *Preloader) report() {
	p.reportMu.Lock()
	defer p.reportMu.Unlock()
	if pct, changed := p.tracker.Report(); changed && p.OnProgress != nil {
		p.OnProgress(pct)
	}
}
