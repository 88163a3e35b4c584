package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDebounce absorbs the burst of events editors produce when
// saving (truncate, write, chmod, rename).
const DefaultReloadDebounce = 250 * time.Millisecond

// Logger defines the logging interface for the watcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ReloadFunc receives every successfully reloaded configuration.
type ReloadFunc func(*Config)

// Watcher reloads the configuration file when it changes on disk.
//
// The parent directory is watched rather than the file itself so that
// atomic saves (write to temp, rename over) keep being observed. Files that
// fail to load or validate are logged and ignored; the last good
// configuration stays in effect.
//
// Thread Safety:
//   - Run should be called once. SetLogger must be called before Run.
type Watcher struct {
	path     string
	onReload ReloadFunc
	debounce time.Duration
	logger   Logger
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	current *Config
}

// NewWatcher creates a watcher for the configuration file at path.
//
// Parameters:
//   - path: Configuration file to watch
//   - initial: Configuration currently in effect (returned by Current until a reload)
//   - onReload: Invoked with each valid reloaded configuration
//
// Returns:
//   - *Watcher: Ready to Run
//   - error: If the fsnotify watcher cannot be created
func NewWatcher(path string, initial *Config, onReload ReloadFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	return &Watcher{
		path:     filepath.Clean(path),
		onReload: onReload,
		debounce: DefaultReloadDebounce,
		logger:   noopLogger{},
		watcher:  fw,
		current:  initial,
	}, nil
}

// SetLogger sets the logger for the watcher.
func (w *Watcher) SetLogger(logger Logger) {
	if logger != nil {
		w.logger = logger
	}
}

// SetDebounce overrides DefaultReloadDebounce.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Current returns the configuration most recently loaded.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run watches until ctx is cancelled, then releases the fsnotify watcher.
//
// Returns:
//   - error: If the directory cannot be watched; nil on cancellation
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.logger.Debug("config watcher started", "path", w.path)

	// A stopped timer whose channel is drained; reset on every relevant event.
	pending := time.NewTimer(time.Hour)
	pending.Stop()
	defer pending.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("config watcher stopping")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)

		case <-pending.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload rejected, keeping previous configuration",
			"path", w.path,
			"error", err,
		)
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	w.logger.Info("config reloaded", "path", w.path)
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
