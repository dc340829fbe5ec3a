// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package watch reruns a build whenever one of a set of files changes.
//
// The watcher observes the parent directories of its files, so editors that
// save by renaming a new file over the old one are seen as well. Bursts of
// events are debounced into a single build, and builds never overlap:
// changes made while a build runs trigger one more build after it.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 200 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Logger   *zap.Logger
}

// BuildFunc runs one build. Its error is logged and does not stop the
// watcher.
type BuildFunc func(ctx context.Context) error

// Watcher triggers builds on file changes.
type Watcher struct {
	fsw      *fsnotify.Watcher
	files    map[string]struct{}
	debounce time.Duration
	log      *zap.Logger

	closeOnce sync.Once
	closeErr  error

	mu     sync.Mutex
	builds int
}

// New returns a Watcher for files. Nothing is observed until Run.
func New(files []string, opts Options) (*Watcher, error) {
	if len(files) == 0 {
		return nil, errors.New("watch: no files given")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		files:    make(map[string]struct{}, len(files)),
		debounce: opts.Debounce,
		log:      opts.Logger,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.log == nil {
		w.log = zap.NewNop()
	}

	dirs := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		w.files[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if _, ok := dirs[dir]; ok {
			continue
		}
		dirs[dir] = struct{}{}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run builds once, then again after every settled change, until ctx is
// done. It returns nil on cancellation. The Watcher is closed on return.
func (w *Watcher) Run(ctx context.Context, build BuildFunc) error {
	defer w.Close()

	w.runBuild(ctx, build)

	// Reset and Stop never leave a stale tick in timer.C.
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug("change", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error", zap.Error(err))

		case <-timer.C:
			w.runBuild(ctx, build)
		}
	}
}

// Builds reports how many builds have run.
func (w *Watcher) Builds() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.builds
}

// Close releases the underlying watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.fsw.Close()
	})
	return w.closeErr
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}
	_, ok := w.files[filepath.Clean(event.Name)]
	return ok
}

func (w *Watcher) runBuild(ctx context.Context, build BuildFunc) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	err := build(ctx)

	w.mu.Lock()
	w.builds++
	n := w.builds
	w.mu.Unlock()

	if err != nil {
		w.log.Error("build failed", zap.Int("build", n), zap.Error(err))
		return
	}
	w.log.Info("build succeeded", zap.Int("build", n), zap.Duration("elapsed", time.Since(start)))
}
