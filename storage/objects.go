package storage

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"syncloop/logger"
)

// BucketStats summarises a listing.
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// ObjectInfo describes one stored asset.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
	ETag         string
}

// ContentType guesses the MIME type of an asset from its name.
func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".mp3":
		return "audio/mpeg"
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".wav":
		return "audio/wav"
	case ".webp":
		return "image/webp"
	}
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// ObjectKey joins prefix and a slash separated relative path.
func ObjectKey(prefix, rel string) string {
	rel = strings.TrimLeft(filepath.ToSlash(rel), "/")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return rel
	}
	return prefix + "/" + rel
}

// List returns the objects under prefix with summary statistics.
func (c *Client) List(ctx context.Context, prefix string) ([]ObjectInfo, *BucketStats, error) {
	stats := &BucketStats{}
	var objects []ObjectInfo

	for object := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("list objects: %w", object.Err)
		}
		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
		ct := object.ContentType
		if ct == "" {
			ct = ContentType(object.Key)
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  ct,
			ETag:         object.ETag,
		})
	}
	return objects, stats, nil
}

// UploadDir copies every regular file below dir into the bucket under
// prefix, keeping relative paths. It returns the number of files uploaded.
func (c *Client) UploadDir(ctx context.Context, dir, prefix string) (int, error) {
	n := 0
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		key := ObjectKey(prefix, rel)
		info, err := c.mc.FPutObject(ctx, c.bucket, key, p, minio.PutObjectOptions{
			ContentType: ContentType(p),
		})
		if err != nil {
			return fmt.Errorf("upload %s: %w", p, err)
		}
		c.log.Info("uploaded", zap.String("key", key), logger.Bytes("size", info.Size))
		n++
		return nil
	})
	return n, err
}

// RemovePrefix deletes every object under prefix.
func (c *Client) RemovePrefix(ctx context.Context, prefix string) (int, error) {
	objects, _, err := c.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if len(objects) == 0 {
		return 0, nil
	}

	ch := make(chan minio.ObjectInfo, len(objects))
	for _, obj := range objects {
		ch <- minio.ObjectInfo{Key: obj.Key}
	}
	close(ch)

	for rerr := range c.mc.RemoveObjects(ctx, c.bucket, ch, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			return 0, fmt.Errorf("remove %s: %w", rerr.ObjectName, rerr.Err)
		}
	}
	return len(objects), nil
}
