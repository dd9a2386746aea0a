package kvstore

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// ChangeCallback is called with the key of a document changed outside
// this process.
type ChangeCallback func(key string)

// Watch observes the File store directory and calls cb for every
// document another process rewrote or removed, until ctx is cancelled.
// Bursts of events for the same key are debounced, and writes made
// through f itself are ignored.
func Watch(ctx context.Context, f *File, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(f.Root()); err != nil {
		return err
	}

	logger.Info("kv watcher: started", slog.String("root", f.Root()))

	pending := make(map[string]struct{})
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	schedule := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(watchDebounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(watchDebounce)
		}
	}

	flush := func() {
		for key := range pending {
			delete(pending, key)
			data, readErr := os.ReadFile(f.path(key))
			if readErr != nil && !errors.Is(readErr, os.ErrNotExist) {
				logger.Warn("kv watcher: read failed", slog.String("key", key), slog.String("error", readErr.Error()))
				continue
			}
			if readErr == nil && f.IsOwnWrite(key, data) {
				continue
			}
			logger.Debug("kv watcher: external change", slog.String("key", key))
			if cb != nil {
				cb(key)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("kv watcher: stopped")
			return nil

		case <-flushCh:
			flush()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			key, ok := f.KeyForPath(ev.Name)
			if !ok {
				continue
			}
			pending[key] = struct{}{}
			schedule()

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("kv watcher: error", slog.String("error", werr.Error()))
		}
	}
}
