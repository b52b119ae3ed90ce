package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"syncloop/cache"
	"syncloop/logger"
)

var redisFlush bool

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Check the asset cache",
	Long:  `Connects to Redis, round-trips a key and reports how many assets are cached. --flush drops them.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !cfg.RedisEnabled() {
			logger.Fatal("REDIS_HOST is not configured")
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Redis %s:%s, DB %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		client, err := cache.Connect(cfg)
		if err != nil {
			logger.Fatal("connect to Redis", logger.ErrorField(err))
		}
		defer client.Close()

		ctx := context.Background()
		if err := cache.Check(ctx, client); err != nil {
			logger.Fatal("Redis check failed", logger.ErrorField(err))
		}
		fmt.Fprintln(out, "connection ok")

		assets := cache.NewAssetCache(client, cfg.AssetCacheTTL, logger.L())
		if redisFlush {
			n, err := assets.Flush(ctx)
			if err != nil {
				logger.Fatal("flush failed", logger.ErrorField(err))
			}
			fmt.Fprintf(out, "flushed %d cached assets\n", n)
			return
		}
		n, err := assets.Count(ctx)
		if err != nil {
			logger.Fatal("count failed", logger.ErrorField(err))
		}
		fmt.Fprintf(out, "%d cached assets\n", n)
	},
}

func init() {
	redisCmd.Flags().BoolVar(&redisFlush, "flush", false, "delete every cached asset")
	rootCmd.AddCommand(redisCmd)
}
