package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"syncloop/config"
	"syncloop/core/auth"
	"syncloop/core/beatsync"
	"syncloop/core/playback"
	"syncloop/core/session"
	"syncloop/core/sink"
	"syncloop/core/surface"
	"syncloop/core/window"
	"syncloop/db"
	"syncloop/logger"
	"syncloop/model"
	"syncloop/repository"
	"syncloop/server"
)

var (
	playPreset     string
	playName       string
	playAssets     string
	playHeadless   bool
	playStatusAddr string
	playTick       time.Duration
	playWidth      int
	playHeight     int
	playFullscreen bool
)

var playCmd = &cobra.Command{
	Use:         "play",
	Short:       "Play a loop in a window, or headless against the wall clock",
	Annotations: map[string]string{quietOnTTY: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		log := logger.L()
		if !cmd.Flags().Changed("tick") {
			playTick = cfg.TickRate
		}

		loop, err := resolveLoop(ctx)
		if err != nil {
			return err
		}
		base := playAssets
		if base == "" {
			base = cfg.AssetBase
		}

		fetcher, cleanup, err := buildFetcher(ctx, log)
		if err != nil {
			return err
		}
		defer cleanup()

		sinks := sink.Multi{sink.NewLog(log)}
		if sink.Interactive(os.Stdout) {
			sinks = append(sinks, sink.NewTerminal(os.Stdout, loop.Name))
		}

		var hub *server.Hub
		if playStatusAddr != "" {
			hub = server.NewHub("", log)
			sinks = append(sinks, hub)
		}

		var (
			player  playback.Player
			surf    beatsync.Surface
			winSurf *window.Surface
			overlay *window.Overlay
		)
		loopLength := time.Duration(loop.Song.LoopSeconds * float64(time.Second))
		if playHeadless {
			player = playback.NewClockPlayer(loopLength)
			surf = surface.NewMemory(playWidth, playHeight)
		} else {
			ap, err := window.NewAudioPlayer(window.DefaultSampleRate, loopLength, log)
			if err != nil {
				logger.Error("audio unavailable", logger.ErrorField(err))
			} else {
				player = ap
			}
			winSurf = window.NewSurface()
			overlay = window.NewOverlay()
			surf = winSurf
			sinks = append(sinks, overlay)
		}

		opts := session.Options{
			Loop:       *loop,
			AssetBase:  base,
			Fetcher:    fetcher,
			Player:     player,
			Surface:    surf,
			Sink:       sinks,
			Logger:     log,
			VolumeStep: cfg.VolumeStep,
		}
		if hub != nil {
			opts.OnFrame = hub.Frame
		}
		s, err := session.New(opts)
		if err != nil {
			return err
		}
		logger.Info("session created",
			logger.String("session", s.ID),
			logger.String("loop", loop.Name),
			logger.String("assets", base),
			logger.Bool("headless", playHeadless),
			logger.Float64("volume_step", cfg.VolumeStep))

		if hub != nil {
			hub.SetSession(s.ID)
			hub.OnKey = s.SubmitKey
			hub.AllowedOrigins = cfg.StatusOrigins
			statusOpts := server.Options{Hub: hub, Log: log}
			if cfg.JWTSecret != "" {
				statusOpts.Issuer = auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
				statusOpts.AccessKeyHash = cfg.AccessKeyHash
			}
			go hub.Run(ctx)
			go func() {
				if err := server.Run(ctx, playStatusAddr, server.NewRouter(statusOpts), log); err != nil {
					logger.Error("status server stopped", logger.ErrorField(err))
				}
			}()
		}

		if playHeadless {
			logger.Debug("headless scheduler", logger.Duration("tick", playTick))
			s.HostResized(playWidth, playHeight)
			s.Start(ctx)
			err = s.Run(ctx, playTick)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		title := loop.SurfaceName()
		if err := window.Run(ctx, s, winSurf, overlay, window.Options{
			Title:      title,
			Width:      playWidth,
			Height:     playHeight,
			Fullscreen: playFullscreen,
		}); err != nil {
			return err
		}
		return s.Err()
	},
}

// resolveLoop reads the loop from a preset file or the preset catalog.
func resolveLoop(ctx context.Context) (*model.Loop, error) {
	switch {
	case playPreset != "" && playName != "":
		return nil, errors.New("use either --preset or --name")
	case playPreset != "":
		return config.LoadPreset(playPreset)
	case playName != "":
		gdb, err := db.Connect(cfg, logger.L())
		if err != nil {
			return nil, err
		}
		defer db.Close(gdb)
		p, err := repository.NewGormPresetRepository(gdb).GetByName(ctx, playName)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("preset %q not found", playName)
		}
		loop := p.Loop()
		if err := loop.Validate(); err != nil {
			return nil, err
		}
		return &loop, nil
	}
	return nil, errors.New("a loop is required: --preset file.yaml or --name preset")
}

func init() {
	f := playCmd.Flags()
	f.StringVar(&playPreset, "preset", "", "preset YAML file")
	f.StringVar(&playName, "name", "", "preset name in the catalog")
	f.StringVar(&playAssets, "assets", "", "asset base: directory, http(s) URL or s3://bucket/prefix (default ASSET_BASE)")
	f.BoolVar(&playHeadless, "headless", false, "run without a window, against the wall clock")
	f.StringVar(&playStatusAddr, "status-addr", "", "serve the websocket status feed on this address")
	f.DurationVar(&playTick, "tick", time.Second/60, "headless tick interval")
	f.IntVar(&playWidth, "width", 800, "window or virtual host width")
	f.IntVar(&playHeight, "height", 600, "window or virtual host height")
	f.BoolVar(&playFullscreen, "fullscreen", false, "start fullscreen")
	rootCmd.AddCommand(playCmd)
}
