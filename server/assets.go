package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"syncloop/core/fetch"
	"syncloop/logger"
	"syncloop/storage"
)

// ErrNotFound is returned by backends for missing assets.
var ErrNotFound = errors.New("asset not found")

// Backend serves asset bytes by slash separated relative path.
type Backend interface {
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)
	// Key identifies name in the asset cache.
	Key(name string) string
}

// cleanName rejects absolute and escaping paths.
func cleanName(name string) (string, error) {
	clean := path.Clean("/" + name)[1:]
	if clean == "" || clean != strings.TrimPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return clean, nil
}

// DirBackend serves files below Root.
type DirBackend struct {
	Root string
}

func (b DirBackend) Key(name string) string {
	return "dir:" + filepath.ToSlash(filepath.Join(b.Root, name))
}

func (b DirBackend) Open(_ context.Context, name string) (io.ReadCloser, int64, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(filepath.Join(b.Root, filepath.FromSlash(clean)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, clean)
		}
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, fmt.Errorf("%w: %s is a directory", ErrNotFound, clean)
	}
	return f, info.Size(), nil
}

// ObjectBackend serves objects of one bucket below Prefix.
type ObjectBackend struct {
	Store  fetch.ObjectOpener
	Bucket string
	Prefix string
}

func (b ObjectBackend) Key(name string) string {
	return "s3://" + b.Bucket + "/" + storage.ObjectKey(b.Prefix, name)
}

func (b ObjectBackend) Open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, 0, err
	}
	rc, size, err := b.Store.OpenObject(ctx, b.Bucket, storage.ObjectKey(b.Prefix, clean))
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, clean)
		}
		return nil, 0, err
	}
	return rc, size, nil
}

// CachedBackend keeps whole assets in a byte store keyed by the wrapped
// backend's Key.
type CachedBackend struct {
	Next  Backend
	Store fetch.Store
	Log   *zap.Logger
}

func (b CachedBackend) logger() *zap.Logger {
	if b.Log == nil {
		return zap.NewNop()
	}
	return b.Log
}

func (b CachedBackend) Key(name string) string {
	return b.Next.Key(name)
}

func (b CachedBackend) Open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	key := b.Next.Key(name)
	data, err := b.Store.Get(ctx, key)
	if err == nil && data != nil {
		return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
	}

	rc, _, err := b.Next.Open(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()
	data, err = io.ReadAll(rc)
	if err != nil {
		return nil, 0, err
	}
	if err := b.Store.Set(ctx, key, data); err != nil {
		b.logger().Warn("asset cache write failed", zap.String("key", key), zap.Error(err))
	} else {
		b.logger().Debug("asset cached", zap.String("key", key), logger.Bytes("size", int64(len(data))))
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}
