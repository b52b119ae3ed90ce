package fetch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type progressLog struct {
	mu     sync.Mutex
	values []float64
}

func (p *progressLog) record(f float64) {
	p.mu.Lock()
	p.values = append(p.values, f)
	p.mu.Unlock()
}

func TestHTTPFetcherReportsProgressWithKnownLength(t *testing.T) {
	body := bytes.Repeat([]byte("a"), 200*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	var prog progressLog
	data, err := NewHTTPFetcher(srv.Client(), "secret").FetchBinary(context.Background(), srv.URL+"/song.mp3", prog.record)
	require.NoError(t, err)
	assert.Equal(t, body, data)

	require.NotEmpty(t, prog.values)
	assert.Equal(t, 1.0, prog.values[len(prog.values)-1])
	for i := 1; i < len(prog.values); i++ {
		assert.GreaterOrEqual(t, prog.values[i], prog.values[i-1])
	}
}

func TestHTTPFetcherUnknownLengthReportsNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("part one "))
		w.(http.Flusher).Flush()
		_, _ = w.Write([]byte("part two"))
	}))
	defer srv.Close()

	var prog progressLog
	data, err := NewHTTPFetcher(nil, "").FetchBinary(context.Background(), srv.URL, prog.record)
	require.NoError(t, err)
	assert.Equal(t, "part one part two", string(data))
	assert.Empty(t, prog.values)
}

func TestHTTPFetcherRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewHTTPFetcher(srv.Client(), "").FetchBinary(context.Background(), srv.URL+"/missing.png", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPFetcherDecodesImages(t *testing.T) {
	raw := pngBytes(t, 8, 6)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	img, err := NewHTTPFetcher(srv.Client(), "").FetchImage(context.Background(), srv.URL+"/f1.png")
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	_, err := DecodeImage([]byte("not an image"))
	assert.Error(t, err)
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f1.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 3, 3), 0644))

	var prog progressLog
	data, err := FileFetcher{}.FetchBinary(context.Background(), "file://"+path, prog.record)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, 1.0, prog.values[len(prog.values)-1])

	img, err := FileFetcher{}.FetchImage(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())

	_, err = FileFetcher{}.FetchBinary(context.Background(), filepath.Join(dir, "nope"), nil)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

type memObjects map[string][]byte

func (m memObjects) OpenObject(_ context.Context, bucket, key string) (io.ReadCloser, int64, error) {
	data, ok := m[bucket+"/"+key]
	if !ok {
		return nil, 0, errors.New("NoSuchKey")
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func TestMinioFetcher(t *testing.T) {
	f := NewMinioFetcher(memObjects{"loops/demo/song.mp3": []byte("ID3....")})

	var prog progressLog
	data, err := f.FetchBinary(context.Background(), "s3://loops/demo/song.mp3", prog.record)
	require.NoError(t, err)
	assert.Equal(t, "ID3....", string(data))
	assert.Equal(t, []float64{1}, prog.values)

	_, err = f.FetchBinary(context.Background(), "s3://loops/demo/missing.mp3", nil)
	assert.Error(t, err)

	_, _, err = SplitObjectURL("s3://bucket-only")
	assert.True(t, errors.Is(err, ErrUnsupported))
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func (s *memStore) Get(_ context.Context, url string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[url], nil
}

func (s *memStore) Set(_ context.Context, url string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[url] = data
	s.sets++
	return nil
}

type countingFetcher struct {
	calls int
	body  []byte
}

func (c *countingFetcher) FetchBinary(_ context.Context, _ string, onProgress ProgressFunc) ([]byte, error) {
	c.calls++
	if onProgress != nil {
		onProgress(1)
	}
	return c.body, nil
}

func (c *countingFetcher) FetchImage(ctx context.Context, url string) (image.Image, error) {
	data, err := c.FetchBinary(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return DecodeImage(data)
}

func TestCachedFillsAndServesFromStore(t *testing.T) {
	inner := &countingFetcher{body: pngBytes(t, 2, 2)}
	store := &memStore{data: map[string][]byte{}}
	c := NewCached(inner, store, nil)

	for i := 0; i < 3; i++ {
		img, err := c.FetchImage(context.Background(), "http://cdn/f1.png")
		require.NoError(t, err)
		assert.Equal(t, 2, img.Bounds().Dx())
	}
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, store.sets)

	var prog progressLog
	_, err := c.FetchBinary(context.Background(), "http://cdn/f1.png", prog.record)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, prog.values, "a cache hit completes in one step")
}

func TestRouterDispatchesByScheme(t *testing.T) {
	httpF := &countingFetcher{body: []byte("h")}
	fileF := &countingFetcher{body: []byte("f")}
	r := &Router{HTTP: httpF, Files: fileF}

	data, err := r.FetchBinary(context.Background(), "https://cdn/a", nil)
	require.NoError(t, err)
	assert.Equal(t, "h", string(data))

	data, err = r.FetchBinary(context.Background(), "assets/a.mp3", nil)
	require.NoError(t, err)
	assert.Equal(t, "f", string(data))

	_, err = r.FetchBinary(context.Background(), "s3://bucket/a", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.True(t, strings.Contains(err.Error(), "s3://bucket/a"))

	_, err = r.FetchBinary(context.Background(), "ftp://host/a", nil)
	assert.True(t, errors.Is(err, ErrUnsupported))
}
