package fetch

import (
	"context"
	"fmt"
	"image"
	"strings"

	"syncloop/model"
)

// Router dispatches each locator to the fetcher for its scheme:
// http/https to HTTP, s3 to Objects, file or no scheme to Files.
type Router struct {
	HTTP    Fetcher
	Objects Fetcher
	Files   Fetcher
}

func (r *Router) pick(url string) (Fetcher, error) {
	var f Fetcher
	switch {
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		f = r.HTTP
	case strings.HasPrefix(url, "s3://"):
		f = r.Objects
	case strings.HasPrefix(url, "file://"), !model.IsRemote(url):
		f = r.Files
	}
	if f == nil {
		return nil, fmt.Errorf("%w: no fetcher configured for %s", ErrUnsupported, url)
	}
	return f, nil
}

func (r *Router) FetchBinary(ctx context.Context, url string, onProgress ProgressFunc) ([]byte, error) {
	f, err := r.pick(url)
	if err != nil {
		return nil, err
	}
	return f.FetchBinary(ctx, url, onProgress)
}

func (r *Router) FetchImage(ctx context.Context, url string) (image.Image, error) {
	f, err := r.pick(url)
	if err != nil {
		return nil, err
	}
	return f.FetchImage(ctx, url)
}
