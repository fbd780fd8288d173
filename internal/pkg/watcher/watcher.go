// Package watcher reports changes to a configuration file.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"logger-netcfg/internal/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a burst of events must settle before onChange runs.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a single file. The parent directory is watched so that
// editors replacing the file by rename are noticed.
type Watcher struct {
	path     string
	onChange func()
	debounce time.Duration
}

// New creates a watcher that calls onChange after path is written or replaced.
func New(path string, onChange func()) *Watcher {
	return &Watcher{
		path:     path,
		onChange: onChange,
		debounce: DefaultDebounce,
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Watch blocks until the context is cancelled or the watcher fails.
func (w *Watcher) Watch(ctx context.Context) error {
	absPath, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", w.path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	logger := logging.WithComponent("watcher").WithField("path", absPath)
	logger.Debug("Watching configuration file")

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				logger.Info("Configuration file changed")
				w.onChange()
			})
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("File watcher error")
		}
	}
}
