package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"syncloop/config"
	"syncloop/core/sink"
	"syncloop/logger"
)

// quietOnTTY marks commands whose terminal belongs to a progress bar.
const quietOnTTY = "quiet-on-tty"

var (
	cfg      *config.Config
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:          "syncloop",
	Short:        "SyncLoop plays an animation loop locked to the beat of a song.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		lc := cfg.LoggerConfig()
		if logLevel != "" {
			lc.Level = logger.LogLevel(logLevel)
		}
		lc.Quiet = cmd.Annotations[quietOnTTY] == "true" && sink.Interactive(os.Stdout)
		logger.InitLogger(lc)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
