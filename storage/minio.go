// Package storage keeps loop assets in a MinIO (S3 compatible) bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"syncloop/config"
	"syncloop/logger"
)

// Client wraps a MinIO client bound to the asset bucket.
type Client struct {
	mc     *minio.Client
	bucket string
	region string
	log    *zap.Logger
}

// NewClient connects to the configured endpoint. It does not touch the
// network; call EnsureBucket to verify the connection.
func NewClient(cfg *config.Config, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	mc, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("create MinIO client: %w", err)
	}
	return &Client{mc: mc, bucket: cfg.MinioBucket, region: cfg.MinioRegion, log: log.Named("minio")}, nil
}

// Bucket is the asset bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

// EnsureBucket creates the asset bucket when it does not exist yet.
func (c *Client) EnsureBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", c.bucket, err)
	}
	if exists {
		c.log.Debug("bucket exists", zap.String("bucket", c.bucket))
		return nil
	}
	if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: c.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", c.bucket, err)
	}
	c.log.Info("bucket created", zap.String("bucket", c.bucket))
	return nil
}

// OpenObject opens bucket/key for reading and returns its size. An empty
// bucket means the asset bucket.
func (c *Client) OpenObject(ctx context.Context, bucket, key string) (io.ReadCloser, int64, error) {
	if bucket == "" {
		bucket = c.bucket
	}
	obj, err := c.mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	// GetObject is lazy; Stat performs the request and surfaces NoSuchKey.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, 0, fmt.Errorf("stat object %s/%s: %w", bucket, key, err)
	}
	c.log.Debug("object opened", zap.String("key", key), logger.Bytes("size", info.Size))
	return obj, info.Size, nil
}

// IsNotFound reports whether err is a missing object or bucket.
func IsNotFound(err error) bool {
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
