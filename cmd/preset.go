package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"syncloop/config"
	"syncloop/db"
	"syncloop/logger"
	"syncloop/model"
	"syncloop/repository"
)

var presetOut string

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage the preset catalog",
}

// withCatalog opens the catalog for one command.
func withCatalog(fn func(ctx context.Context, repo repository.PresetRepository) error) error {
	gdb, err := db.Connect(cfg, logger.L())
	if err != nil {
		return err
	}
	defer db.Close(gdb)
	return fn(context.Background(), repository.NewGormPresetRepository(gdb))
}

var presetImportCmd = &cobra.Command{
	Use:   "import <file.yaml>...",
	Short: "Validate preset files and store them in the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loops := make([]*model.Loop, 0, len(args))
		for _, path := range args {
			loop, err := config.LoadPreset(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if loop.Name == "" {
				return fmt.Errorf("%s: preset needs a name", path)
			}
			loops = append(loops, loop)
		}
		return withCatalog(func(ctx context.Context, repo repository.PresetRepository) error {
			for _, loop := range loops {
				if err := repo.Save(ctx, model.PresetFromLoop(*loop)); err != nil {
					return fmt.Errorf("save %s: %w", loop.Name, err)
				}
				logger.Info("preset imported", logger.String("name", loop.Name))
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", loop.Name)
			}
			return nil
		})
	},
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(ctx context.Context, repo repository.PresetRepository) error {
			presets, err := repo.List(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSONG\tBEATS\tFRAMES\tANIM BEATS\tOFFSET")
			for _, p := range presets {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n",
					p.Name, p.SongFile, p.SongBeats, p.FrameCount, p.AnimBeats, p.SyncOffset)
			}
			return tw.Flush()
		})
	},
}

var presetShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a catalog preset as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(ctx context.Context, repo repository.PresetRepository) error {
			p, err := repo.GetByName(ctx, args[0])
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("preset %q: %w", args[0], gorm.ErrRecordNotFound)
			}
			loop := p.Loop()
			if presetOut != "" {
				return config.SavePreset(presetOut, &loop)
			}
			out, err := config.MarshalPreset(&loop)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		})
	},
}

var presetRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a catalog preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(ctx context.Context, repo repository.PresetRepository) error {
			removed, err := repo.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("preset %q not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		})
	},
}

func init() {
	presetShowCmd.Flags().StringVarP(&presetOut, "out", "o", "", "write the preset to this file instead of stdout")
	presetCmd.AddCommand(presetImportCmd, presetListCmd, presetShowCmd, presetRmCmd)
	rootCmd.AddCommand(presetCmd)
}
