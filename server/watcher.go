package server

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Invalidator drops one cached asset.
type Invalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// Watcher invalidates cached assets of a DirBackend when files change.
type Watcher struct {
	backend DirBackend
	cache   Invalidator
	fsw     *fsnotify.Watcher
	log     *zap.Logger

	// OnInvalidate observes every invalidated key.
	OnInvalidate func(key string)
}

// NewWatcher watches every directory below backend.Root.
func NewWatcher(backend DirBackend, cache Invalidator, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{backend: backend, cache: cache, fsw: fsw, log: log.Named("watcher")}

	err = filepath.WalkDir(backend.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(p)
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run handles events until ctx ends, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return
	}
	if ev.Has(fsnotify.Create) {
		// new subdirectories need their own watch
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(ev.Name); err == nil {
				w.log.Debug("watching", zap.String("dir", ev.Name))
			}
			return
		}
	}

	rel, err := filepath.Rel(w.backend.Root, ev.Name)
	if err != nil {
		return
	}
	key := w.backend.Key(filepath.ToSlash(rel))
	if err := w.cache.Invalidate(ctx, key); err != nil {
		w.log.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
		return
	}
	w.log.Debug("asset invalidated", zap.String("path", rel), zap.String("op", ev.Op.String()))
	if w.OnInvalidate != nil {
		w.OnInvalidate(key)
	}
}
