package cmd

import (
	"context"
	"net/http"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"syncloop/cache"
	"syncloop/core/fetch"
	"syncloop/logger"
	"syncloop/storage"
)

// buildFetcher wires the fetchers the configuration enables. The returned
// cleanup closes whatever was opened.
func buildFetcher(ctx context.Context, log *zap.Logger) (fetch.Fetcher, func(), error) {
	var (
		httpF    fetch.Fetcher = fetch.NewHTTPFetcher(&http.Client{}, cfg.AssetToken)
		objectsF fetch.Fetcher
		client   *redis.Client
	)

	if cfg.MinioEnabled() {
		mc, err := storage.NewClient(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		objectsF = fetch.NewMinioFetcher(mc)
	}

	if cfg.RedisEnabled() {
		c, err := cache.Connect(cfg)
		if err != nil {
			// the cache is an optimisation; run without it
			logger.Warn("asset cache unavailable", logger.ErrorField(err))
		} else {
			client = c
			store := cache.NewAssetCache(client, cfg.AssetCacheTTL, log)
			httpF = fetch.NewCached(httpF, store, log)
			if objectsF != nil {
				objectsF = fetch.NewCached(objectsF, store, log)
			}
		}
	}

	cleanup := func() {
		if client != nil {
			client.Close()
		}
	}
	return &fetch.Router{HTTP: httpF, Objects: objectsF, Files: fetch.FileFetcher{}}, cleanup, nil
}
