package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/fsnotify.v1"
)

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Settle is how long a file must go without events before it is
	// handed over (default: 500ms). Downloads write in several chunks.
	Settle time.Duration

	// Extension filters file names (default: FilingExtension).
	Extension string

	// Logger for watch errors.
	Logger *slog.Logger
}

func (c *WatcherConfig) defaults() {
	if c.Settle <= 0 {
		c.Settle = 500 * time.Millisecond
	}
	if c.Extension == "" {
		c.Extension = FilingExtension
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Watcher reports filings that appear or change in a directory.
type Watcher struct {
	dir string
	cfg WatcherConfig
}

// NewWatcher creates a Watcher for dir.
func NewWatcher(dir string, cfg WatcherConfig) *Watcher {
	cfg.defaults()
	return &Watcher{dir: dir, cfg: cfg}
}

// Watch blocks until ctx is done, calling handle with the base name of each
// created or written file once it has settled. Handlers run on the watch
// goroutine, one at a time.
func (watcher *Watcher) Watch(ctx context.Context, handle func(identifier string)) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(watcher.dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", watcher.dir, err)
	}

	logger := watcher.cfg.Logger.With("dir", watcher.dir)
	logger.Info("watching for filings", "settle", watcher.cfg.Settle)

	ticker := time.NewTicker(watcher.cfg.Settle / 2)
	defer ticker.Stop()

	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, watcher.cfg.Extension) {
				continue
			}

			switch {
			case event.Op&fsnotify.Create == fsnotify.Create,
				event.Op&fsnotify.Write == fsnotify.Write:
				pending[filepath.Base(event.Name)] = time.Now()

			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				delete(pending, filepath.Base(event.Name))
			}

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case now := <-ticker.C:
			for _, identifier := range settled(pending, now, watcher.cfg.Settle) {
				delete(pending, identifier)
				handle(identifier)
			}
		}
	}
}

// settled returns, sorted, the names whose last event is older than settle.
func settled(pending map[string]time.Time, now time.Time, settle time.Duration) []string {
	var ready []string
	for identifier, lastEvent := range pending {
		if now.Sub(lastEvent) >= settle {
			ready = append(ready, identifier)
		}
	}
	sort.Strings(ready)
	return ready
}
