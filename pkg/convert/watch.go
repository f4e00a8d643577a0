package convert

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/not-in-stock/terminal-profiles-hm/pkg/log"
)

// DefaultDebounce is how long [Watch] waits for more events before running.
const DefaultDebounce = 100 * time.Millisecond

// WatchOpt configures [Watch].
type WatchOpt func(*watchConfig)

type watchConfig struct {
	debounce time.Duration
}

// WithDebounce sets how long to wait for further events before running.
func WithDebounce(d time.Duration) WatchOpt {
	return func(c *watchConfig) {
		c.debounce = d
	}
}

// Watch calls fn every time the file at path changes, until ctx is cancelled.
// Permission changes are ignored, and bursts of events (such as an editor
// replacing the file) result in a single call. Errors from fn are logged and
// do not stop watching.
//
// The parent directory is watched, so the file may be replaced or may not
// exist yet.
func Watch(ctx context.Context, path string, fn func(context.Context) error, opts ...WatchOpt) error {
	cfg := watchConfig{debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&cfg)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("get absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}

	logger := log.WithContext(ctx).With(slog.String("path", absPath))

	defer func() {
		err := watcher.Close()
		if err != nil {
			logger.Error("close watcher", slog.Any("err", err))
		}
	}()

	err = watcher.Add(filepath.Dir(absPath))
	if err != nil {
		return fmt.Errorf("add path to watcher: %w", err)
	}

	logger.DebugContext(ctx, "watching for changes")

	timer := time.NewTimer(cfg.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(evt.Name) != absPath {
				continue
			}

			// Ignore events that are not related to file content changes.
			if evt.Op == fsnotify.Chmod {
				continue
			}

			logger.DebugContext(ctx, "file changed", slog.String("event", evt.Op.String()))
			timer.Reset(cfg.debounce)

		case <-timer.C:
			err := fn(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "run after change", slog.Any("err", err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.ErrorContext(ctx, "watch", slog.Any("err", err))
		}
	}
}
