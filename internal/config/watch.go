package config

import (
	"context"
	"log/slog"
	"os"
	"time"
)

const DefaultWatchInterval = 2 * time.Second

// WatcherConfig holds configuration for a Watcher.
type WatcherConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Watcher polls config files for modification and reports changes.
type Watcher struct {
	interval time.Duration
	files    func() []string
	onChange func()
	logger   *slog.Logger

	stamps map[string]stamp
}

type stamp struct {
	mod    time.Time
	size   int64
	exists bool
}

// NewWatcher creates a watcher over the files returned by files. files is
// re-evaluated on every poll so include changes are picked up.
func NewWatcher(cfg WatcherConfig, files func() []string, onChange func()) *Watcher {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		interval: interval,
		files:    files,
		onChange: onChange,
		logger:   logger,
	}
	w.stamps = w.snapshot()
	return w
}

// Run polls until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.Check() {
				w.logger.Info("config file changed")
				w.onChange()
			}
		}
	}
}

// Check takes a new snapshot and reports whether anything differs from the
// previous one.
func (w *Watcher) Check() bool {
	next := w.snapshot()
	changed := len(next) != len(w.stamps)
	if !changed {
		for path, s := range next {
			if prev, ok := w.stamps[path]; !ok || prev != s {
				changed = true
				break
			}
		}
	}
	w.stamps = next
	return changed
}

func (w *Watcher) snapshot() map[string]stamp {
	files := w.files()
	out := make(map[string]stamp, len(files))
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			out[path] = stamp{}
			continue
		}
		out[path] = stamp{mod: info.ModTime(), size: info.Size(), exists: true}
	}
	return out
}
