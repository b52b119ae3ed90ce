package fetch

import (
	"context"
	"image"

	"go.uber.org/zap"
)

// Store is a byte cache keyed by locator. Get returns nil, nil on a miss.
type Store interface {
	Get(ctx context.Context, url string) ([]byte, error)
	Set(ctx context.Context, url string, data []byte) error
}

// Cached serves assets from a Store and fills it from the wrapped fetcher.
// Cache errors are logged and never fail a fetch.
type Cached struct {
	next  Fetcher
	store Store
	log   *zap.Logger
}

func NewCached(next Fetcher, store Store, log *zap.Logger) *Cached {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cached{next: next, store: store, log: log.Named("fetch.cache")}
}

func (c *Cached) FetchBinary(ctx context.Context, url string, onProgress ProgressFunc) ([]byte, error) {
	data, err := c.store.Get(ctx, url)
	if err != nil {
		c.log.Warn("asset cache read failed", zap.String("url", url), zap.Error(err))
	}
	if data != nil {
		c.log.Debug("asset cache hit", zap.String("url", url), zap.Int("size", len(data)))
		if onProgress != nil {
			onProgress(1)
		}
		return data, nil
	}

	data, err = c.next.FetchBinary(ctx, url, onProgress)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, url, data); err != nil {
		c.log.Warn("asset cache write failed", zap.String("url", url), zap.Error(err))
	}
	return data, nil
}

func (c *Cached) FetchImage(ctx context.Context, url string) (image.Image, error) {
	data, err := c.FetchBinary(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return DecodeImage(data)
}
