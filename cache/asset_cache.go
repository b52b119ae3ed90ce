package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"syncloop/logger"
)

// AssetPrefix namespaces every cached asset key.
const AssetPrefix = "asset:"

const opTimeout = 5 * time.Second

// AssetKey is the cache key of a locator.
func AssetKey(url string) string {
	sum := sha1.Sum([]byte(url))
	return AssetPrefix + hex.EncodeToString(sum[:])
}

// AssetCache keeps fetched asset bytes in Redis. A miss and a Redis failure
// both read as (nil, nil) so callers fall through to the origin.
type AssetCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewAssetCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *AssetCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &AssetCache{client: client, ttl: ttl, log: log.Named("asset-cache")}
}

func (c *AssetCache) Get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, AssetKey(url)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		// a broken cache must not fail the load
		c.log.Warn("cache read failed, using origin", zap.String("url", url), zap.Error(err))
		return nil, nil
	}
	c.log.Debug("cache hit", zap.String("url", url), logger.Bytes("size", int64(len(data))))
	return data, nil
}

func (c *AssetCache) Set(ctx context.Context, url string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, AssetKey(url), data, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", zap.String("url", url), zap.Error(err))
		return err
	}
	return nil
}

// Invalidate drops the entry of one locator.
func (c *AssetCache) Invalidate(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return c.client.Del(ctx, AssetKey(url)).Err()
}

// Count returns the number of cached assets.
func (c *AssetCache) Count(ctx context.Context) (int, error) {
	n := 0
	iter := c.client.Scan(ctx, 0, AssetPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	return n, iter.Err()
}

// Flush removes every cached asset and returns how many were dropped.
func (c *AssetCache) Flush(ctx context.Context) (int, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, AssetPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}
	c.log.Info("asset cache flushed", zap.Int("keys", len(keys)))
	return len(keys), nil
}
