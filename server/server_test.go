package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syncloop/core/auth"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *memStore) Set(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
	s.sets++
	return nil
}

func (s *memStore) Invalidate(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *memStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

func assetDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "frames"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "song.mp3"), []byte("ID3 song bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frames", "f1.png"), []byte("png"), 0o644))
	return dir
}

func TestAssetRoutes(t *testing.T) {
	srv := httptest.NewServer(NewRouter(Options{Assets: DirBackend{Root: assetDir(t)}}))
	defer srv.Close()

	t.Run("song", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/assets/song.mp3")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
		assert.Equal(t, "14", resp.Header.Get("Content-Length"))
		assert.Equal(t, "ID3 song bytes", string(body))
	})

	t.Run("nested frame", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/assets/frames/f1.png")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	})

	t.Run("missing", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/assets/frames/f9.png")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("directory", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/assets/frames")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/healthz")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("no token endpoint without issuer", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/token", "application/json", strings.NewReader(`{"key":"x"}`))
		require.NoError(t, err)
		resp.Body.Close()
		assert.NotEqual(t, http.StatusOK, resp.StatusCode)
	})
}

func TestCleanName(t *testing.T) {
	for _, bad := range []string{"", "../secret", "frames/../../x", "/abs/../x", "a//b"} {
		_, err := cleanName(bad)
		assert.ErrorIs(t, err, ErrNotFound, bad)
	}
	name, err := cleanName("frames/f1.png")
	require.NoError(t, err)
	assert.Equal(t, "frames/f1.png", name)
}

func TestTokenProtectedAssets(t *testing.T) {
	hash, err := auth.HashKey("letmein")
	require.NoError(t, err)
	srv := httptest.NewServer(NewRouter(Options{
		Assets:        DirBackend{Root: assetDir(t)},
		Issuer:        auth.NewIssuer("secret", time.Hour),
		AccessKeyHash: hash,
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/assets/song.mp3")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/token", "application/json", strings.NewReader(`{"key":"wrong"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/token", "application/json", strings.NewReader(`{"key":"letmein"}`))
	require.NoError(t, err)
	var tok TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, tok.Token)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/assets/song.mp3", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCachedBackend(t *testing.T) {
	dir := assetDir(t)
	store := newMemStore()
	b := CachedBackend{Next: DirBackend{Root: dir}, Store: store}
	ctx := context.Background()

	read := func() string {
		rc, size, err := b.Open(ctx, "song.mp3")
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), size)
		return string(data)
	}

	assert.Equal(t, "ID3 song bytes", read())
	assert.True(t, store.has(b.Key("song.mp3")))

	// served from the cache even though the file changed
	require.NoError(t, os.WriteFile(filepath.Join(dir, "song.mp3"), []byte("ID3 new"), 0o644))
	assert.Equal(t, "ID3 song bytes", read())
	assert.Equal(t, 1, store.sets)

	require.NoError(t, store.Invalidate(ctx, b.Key("song.mp3")))
	assert.Equal(t, "ID3 new", read())

	_, _, err := b.Open(ctx, "nope.mp3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "127.0.0.1:0", NewRouter(Options{}), nil)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
