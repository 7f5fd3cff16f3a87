package live

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

const defaultSettle = 250 * time.Millisecond

// Notifier is the part of the hub the store watcher drives.
type Notifier interface {
	Notify(collections ...string)
}

// StoreWatcher refreshes live subscribers when another process (the sync
// worker) writes to the shared SQLite file. It cannot tell which collection
// changed, so every collection is refreshed after a burst of writes settles.
type StoreWatcher struct {
	path        string
	collections []string
	notify      Notifier
	logg        *logger.Logger
	settle      time.Duration
}

func NewStoreWatcher(dbPath string, collections []string, notify Notifier, logg *logger.Logger) (*StoreWatcher, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("database path required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	return &StoreWatcher{
		path:        abs,
		collections: collections,
		notify:      notify,
		logg:        logg,
		settle:      defaultSettle,
	}, nil
}

// Run watches until ctx ends.
func (w *StoreWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	// the directory, because SQLite replaces the -wal and -shm files
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	// Go 1.23 timers: Reset drops any stale tick, no draining needed
	timer := time.NewTimer(w.settle)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			timer.Reset(w.settle)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if w.logg != nil {
				w.logg.Warn(w.logg.WithField(ctx, "error", err.Error()), "store watcher error")
			}
		case <-timer.C:
			w.notify.Notify(w.collections...)
		}
	}
}

func (w *StoreWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == w.path || name == w.path+"-wal"
}
