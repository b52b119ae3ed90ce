package fetch

import (
	"context"
	"fmt"
	"image"
	"io"
	"strings"
)

// ObjectOpener opens an object and reports its size, -1 if unknown.
type ObjectOpener interface {
	OpenObject(ctx context.Context, bucket, key string) (io.ReadCloser, int64, error)
}

// MinioFetcher reads s3://bucket/key locators from object storage.
type MinioFetcher struct {
	store ObjectOpener
}

func NewMinioFetcher(store ObjectOpener) *MinioFetcher {
	return &MinioFetcher{store: store}
}

// SplitObjectURL splits s3://bucket/key into its parts.
func SplitObjectURL(url string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(url, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w: %s is not an s3:// locator", ErrUnsupported, url)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %s has no bucket or key", ErrUnsupported, url)
	}
	return bucket, key, nil
}

func (f *MinioFetcher) FetchBinary(ctx context.Context, url string, onProgress ProgressFunc) ([]byte, error) {
	bucket, key, err := SplitObjectURL(url)
	if err != nil {
		return nil, err
	}
	obj, size, err := f.store.OpenObject(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", url, err)
	}
	defer obj.Close()

	data, err := readAll(ctx, obj, size, onProgress)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", url, err)
	}
	return data, nil
}

func (f *MinioFetcher) FetchImage(ctx context.Context, url string) (image.Image, error) {
	data, err := f.FetchBinary(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return DecodeImage(data)
}
