package fetch

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"
)

// FileFetcher reads assets from the local filesystem. Locators may be plain
// paths or file:// URLs.
type FileFetcher struct{}

func filePath(url string) string {
	return strings.TrimPrefix(url, "file://")
}

func (FileFetcher) FetchBinary(ctx context.Context, url string, onProgress ProgressFunc) ([]byte, error) {
	path := filePath(url)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var size int64 = -1
	if st, err := f.Stat(); err == nil {
		size = st.Size()
	}
	data, err := readAll(ctx, f, size, onProgress)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (ff FileFetcher) FetchImage(ctx context.Context, url string) (image.Image, error) {
	data, err := ff.FetchBinary(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return DecodeImage(data)
}
