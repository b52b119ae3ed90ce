package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"syncloop/logger"
	"syncloop/storage"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Manage loop assets in the MinIO bucket",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rootCmd.PersistentPreRun(cmd, args)
		if !cfg.MinioEnabled() {
			return fmt.Errorf("MINIO_ENDPOINT is not configured")
		}
		return nil
	},
}

func minioClient(ctx context.Context) *storage.Client {
	client, err := storage.NewClient(cfg, logger.L())
	if err != nil {
		logger.Fatal("create MinIO client", logger.ErrorField(err))
	}
	if err := client.EnsureBucket(ctx); err != nil {
		logger.Fatal("connect to MinIO", logger.ErrorField(err))
	}
	return client
}

var minioUploadCmd = &cobra.Command{
	Use:   "upload <dir>",
	Short: "Upload a directory of loop assets",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		client := minioClient(ctx)

		start := time.Now()
		n, err := client.UploadDir(ctx, args[0], minioPrefix)
		if err != nil {
			logger.Fatal("upload failed", logger.ErrorField(err), logger.Int("uploaded", n))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d files to s3://%s/%s in %s\n",
			n, client.Bucket(), minioPrefix, time.Since(start).Round(time.Millisecond))
	},
}

var minioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored assets",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		client := minioClient(ctx)

		objects, stats, err := client.List(ctx, minioPrefix)
		if err != nil {
			logger.Fatal("list failed", logger.ErrorField(err))
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tSIZE\tTYPE\tMODIFIED")
		for _, o := range objects {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.Key, humanize.Bytes(uint64(o.Size)), o.ContentType, humanize.Time(o.LastModified))
		}
		tw.Flush()
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d objects, %s\n", stats.TotalObjects, humanize.Bytes(uint64(stats.TotalSize)))
	},
}

var minioRmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Delete every asset under --prefix",
	Run: func(cmd *cobra.Command, args []string) {
		if minioPrefix == "" {
			logger.Fatal("rm needs --prefix")
		}
		ctx := context.Background()
		n, err := minioClient(ctx).RemovePrefix(ctx, minioPrefix)
		if err != nil {
			logger.Fatal("remove failed", logger.ErrorField(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d objects\n", n)
	},
}

func init() {
	minioCmd.PersistentFlags().StringVar(&minioPrefix, "prefix", "", "object key prefix")
	minioCmd.AddCommand(minioUploadCmd, minioListCmd, minioRmCmd)
	rootCmd.AddCommand(minioCmd)
}
