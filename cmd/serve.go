package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"syncloop/cache"
	"syncloop/core/auth"
	"syncloop/logger"
	"syncloop/server"
	"syncloop/storage"
)

var (
	serveDir    string
	servePrefix string
	serveAddr   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve loop assets from a directory or the MinIO bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		log := logger.L()

		addr := serveAddr
		if addr == "" {
			addr = cfg.ServerAddr
		}

		var backend server.Backend
		var dir *server.DirBackend
		switch {
		case serveDir != "":
			d := server.DirBackend{Root: serveDir}
			dir, backend = &d, d
		case cfg.MinioEnabled():
			mc, err := storage.NewClient(cfg, log)
			if err != nil {
				return err
			}
			if err := mc.EnsureBucket(ctx); err != nil {
				return err
			}
			backend = server.ObjectBackend{Store: mc, Bucket: mc.Bucket(), Prefix: servePrefix}
		default:
			return errors.New("nothing to serve: pass --dir or configure MINIO_ENDPOINT")
		}

		if cfg.RedisEnabled() {
			client, err := cache.Connect(cfg)
			if err != nil {
				return err
			}
			defer client.Close()
			store := cache.NewAssetCache(client, cfg.AssetCacheTTL, log)
			backend = server.CachedBackend{Next: backend, Store: store, Log: log}

			if dir != nil {
				w, err := server.NewWatcher(*dir, store, log)
				if err != nil {
					return fmt.Errorf("watch %s: %w", dir.Root, err)
				}
				go w.Run(ctx)
			}
		}

		opts := server.Options{Assets: backend, Log: log}
		if cfg.JWTSecret != "" {
			opts.Issuer = auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
			opts.AccessKeyHash = cfg.AccessKeyHash
			if cfg.AccessKeyHash == "" {
				logger.Warn("JWT_SECRET set without ACCESS_KEY_HASH; no token can be issued")
			}
		}

		logger.Info("serving assets",
			logger.String("addr", addr),
			logger.String("public", cfg.ServerPublicURL+"/assets/"),
			logger.Bool("auth", opts.Issuer != nil),
			logger.Bool("cache", cfg.RedisEnabled()))
		return server.Run(ctx, addr, server.NewRouter(opts), log)
	},
}

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key <key>",
	Short: "Print the bcrypt hash of an access key for ACCESS_KEY_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashKey(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveDir, "dir", "", "serve this directory")
	serveCmd.Flags().StringVar(&servePrefix, "bucket-prefix", "", "object key prefix when serving from MinIO")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default SERVER_ADDR)")
	serveCmd.AddCommand(hashKeyCmd)
	rootCmd.AddCommand(serveCmd)
}
