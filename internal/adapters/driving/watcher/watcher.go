// Package watcher rebuilds the index when the records file changes on disk.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/hotelrag/internal/core/ports/driving"
	"github.com/custodia-labs/hotelrag/internal/logger"
)

// DefaultDebounce is the quiet period after the last write before rebuilding.
const DefaultDebounce = 2 * time.Second

// ErrMissingBuilder is returned when no index builder is provided.
var ErrMissingBuilder = errors.New("watcher: index builder is required")

// Config holds watcher configuration.
type Config struct {
	// Path is the records file to watch (required).
	Path string

	// Debounce is the quiet period before a rebuild (default: 2s).
	Debounce time.Duration

	// OnRebuild is called after each rebuild attempt. Optional.
	OnRebuild func(err error)
}

// Watcher triggers index rebuilds on records file changes.
// The parent directory is watched so editors that replace the file by
// rename are still seen.
type Watcher struct {
	builder  driving.IndexBuilder
	path     string
	debounce time.Duration
	notify   func(err error)
}

// New creates a watcher for cfg.Path.
func New(builder driving.IndexBuilder, cfg Config) (*Watcher, error) {
	if builder == nil {
		return nil, ErrMissingBuilder
	}
	if cfg.Path == "" {
		return nil, errors.New("watcher: path is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	path, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", cfg.Path, err)
	}

	return &Watcher{
		builder:  builder,
		path:     path,
		debounce: cfg.Debounce,
		notify:   cfg.OnRebuild,
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run watches until ctx is cancelled. Rebuild failures are logged and the
// previous index keeps serving.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	logger.Info("Watching %s for changes", w.path)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			logger.Debug("Records file event: %s", event)
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error: %v", err)

		case <-timer.C:
			w.rebuild(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) rebuild(ctx context.Context) {
	report, err := w.builder.Rebuild(ctx)
	switch {
	case err != nil:
		logger.Warn("Rebuild after change to %s failed: %v", w.path, err)
	default:
		logger.Info("Rebuilt index from %s: %d indexed, %d skipped", w.path, report.Indexed, len(report.Skipped))
	}
	if w.notify != nil {
		w.notify(err)
	}
}
