// Package watch re-runs a verification pass when project sources change.
// Used by the watch command for fast local iteration.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces editor save bursts into one re-run.
const DefaultDebounce = 300 * time.Millisecond

// Watcher triggers a callback on relevant file changes.
type Watcher struct {
	// Dir is the directory tree to watch.
	Dir string

	// Extensions filters events to matching file extensions (with dot).
	// Empty means every file counts.
	Extensions []string

	// Debounce coalesces change bursts. Zero means DefaultDebounce.
	Debounce time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Run watches until the context is cancelled, invoking onChange after each
// debounced burst of changes. onChange runs on the watcher goroutine: a slow
// callback delays subsequent triggers but never loses the final state.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := w.Debounce
	if debounce == 0 {
		debounce = DefaultDebounce
	}

	if err := watchDirRecursive(watcher, w.Dir); err != nil {
		return err
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchDirRecursive(watcher, event.Name)
					continue
				}
			}
			if !w.matches(event.Name) {
				continue
			}
			logger.Debug("change detected", slog.String("file", event.Name))
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Stop()
				timer.Reset(debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			onChange(ctx)

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", slog.Any("error", werr))
		}
	}
}

func (w *Watcher) matches(name string) bool {
	if len(w.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, want := range w.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// watchDirRecursive registers dir and every subdirectory. Hidden directories
// (including the state directory) are skipped so the pipeline's own writes
// never re-trigger it; directories that vanish mid-walk are skipped too.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		_ = watcher.Add(path)
		return nil
	})
}
