package fetch

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"time"
)

// HTTPFetcher fetches assets over HTTP(S).
type HTTPFetcher struct {
	client *http.Client
	token  string
}

// NewHTTPFetcher creates a fetcher. A non-empty token is sent as a bearer
// credential on every request.
func NewHTTPFetcher(client *http.Client, token string) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &HTTPFetcher{client: client, token: token}
}

func (f *HTTPFetcher) FetchBinary(ctx context.Context, url string, onProgress ProgressFunc) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get %s: unexpected status %s", url, resp.Status)
	}

	// ContentLength is -1 when the server did not announce a size
	data, err := readAll(ctx, resp.Body, resp.ContentLength, onProgress)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return data, nil
}

func (f *HTTPFetcher) FetchImage(ctx context.Context, url string) (image.Image, error) {
	data, err := f.FetchBinary(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return DecodeImage(data)
}
