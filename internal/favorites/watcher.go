package favorites

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDebounce coalesces bursts of writes (temp file + rename).
const DefaultReloadDebounce = 100 * time.Millisecond

// Watcher reloads a Set whenever its FileStore's file changes on disk, so
// favorites toggled by another process show up in a long-running server.
type Watcher struct {
	store    *FileStore
	set      *Set
	debounce time.Duration
	log      *slog.Logger
	reloaded chan struct{}
}

// NewWatcher creates a watcher. Call Run to start it.
func NewWatcher(store *FileStore, set *Set, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		store:    store,
		set:      set,
		debounce: DefaultReloadDebounce,
		log:      logger,
		reloaded: make(chan struct{}, 1),
	}
}

// Reloaded receives a value after each reload attempt.
func (w *Watcher) Reloaded() <-chan struct{} {
	return w.reloaded
}

// Run watches until ctx is cancelled. The directory is watched rather than
// the file because saves replace the file by rename.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := w.store.ensureDir(); err != nil {
		return err
	}
	dir := filepath.Dir(w.store.Path())
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(w.store.Path())
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("favorites_watch_error", slog.String("error", err.Error()))
		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	if err := w.set.Load(ctx); err != nil {
		w.log.Warn("favorites_reload_failed", slog.String("error", err.Error()))
	} else {
		w.log.Info("favorites_reloaded", slog.Int("count", w.set.Len()))
	}

	select {
	case w.reloaded <- struct{}{}:
	default:
	}
}
