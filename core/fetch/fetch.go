// Package fetch retrieves loop assets from HTTP servers, local files and
// object storage, reporting byte-level progress where the size is known.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
)

// ProgressFunc receives the completed fraction of a transfer, in (0,1].
type ProgressFunc func(fraction float64)

// Fetcher is the resource fetch collaborator.
type Fetcher interface {
	// FetchBinary returns the raw bytes at url. onProgress may be nil and is
	// only called when the total size is known up front.
	FetchBinary(ctx context.Context, url string, onProgress ProgressFunc) ([]byte, error)
	// FetchImage returns the decoded image at url.
	FetchImage(ctx context.Context, url string) (image.Image, error)
}

// ErrUnsupported is returned for locators no fetcher handles.
var ErrUnsupported = errors.New("unsupported locator")

const chunkSize = 32 * 1024

// readAll reads r to the end, reporting progress against total when total > 0.
func readAll(ctx context.Context, r io.Reader, total int64, onProgress ProgressFunc) ([]byte, error) {
	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}
	chunk := make([]byte, chunkSize)
	var read int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			read += int64(n)
			if total > 0 && onProgress != nil {
				onProgress(min(1, float64(read)/float64(total)))
			}
		}
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
