package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, path string, reloaded chan *Config) *Watcher {
	t.Helper()

	initial, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	w, err := NewWatcher(path, initial, func(cfg *Config) { reloaded <- cfg })
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	})

	// fsnotify needs the watch registered before the first write.
	time.Sleep(50 * time.Millisecond)
	return w
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, minimalDevices+"presence:\n  timeout: \"5m\"\n")
	reloaded := make(chan *Config, 4)
	w := startWatcher(t, path, reloaded)

	if err := os.WriteFile(path, []byte(minimalDevices+"presence:\n  timeout: \"30s\"\n"), 0600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Presence.Timeout != 30*time.Second {
			t.Errorf("reloaded Presence.Timeout = %v, want 30s", cfg.Presence.Timeout)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after write")
	}

	if got := w.Current().Presence.Timeout; got != 30*time.Second {
		t.Errorf("Current().Presence.Timeout = %v, want 30s", got)
	}
}

func TestWatcher_KeepsPreviousOnInvalidFile(t *testing.T) {
	path := writeConfig(t, minimalDevices+"presence:\n  timeout: \"5m\"\n")
	reloaded := make(chan *Config, 4)
	w := startWatcher(t, path, reloaded)

	if err := os.WriteFile(path, []byte(minimalDevices+"presence:\n  timeout: \"0s\"\n"), 0600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		t.Fatalf("unexpected reload with timeout %v", cfg.Presence.Timeout)
	case <-time.After(300 * time.Millisecond):
	}

	if got := w.Current().Presence.Timeout; got != 5*time.Minute {
		t.Errorf("Current().Presence.Timeout = %v, want 5m", got)
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	path := writeConfig(t, minimalDevices)
	reloaded := make(chan *Config, 4)
	startWatcher(t, path, reloaded)

	sibling := filepath.Join(filepath.Dir(path), "other.yaml")
	if err := os.WriteFile(sibling, []byte("x: 1\n"), 0600); err != nil {
		t.Fatalf("write sibling: %v", err)
	}

	select {
	case <-reloaded:
		t.Fatal("reload triggered by unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}
