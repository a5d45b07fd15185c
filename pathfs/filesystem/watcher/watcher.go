package watcher

import (
	"time"

	"github.com/ZanzyTHEbar/pathresource/pathfs/config"
)

// DefaultConfig returns a default watcher configuration
func DefaultConfig() WatcherConfig {
	return WatcherConfig{
		DebounceDelay:    100 * time.Millisecond,
		MaxDebounceDelay: 2 * time.Second,
		QueueCapacity:    1000,
		Recursive:        true,
	}
}

// FromConfig builds a recursive watcher configuration from the monitor settings.
// Non-positive values fall back to the defaults; a zero debounce stays zero.
func FromConfig(cfg config.MonitorConfig) WatcherConfig {
	wc := DefaultConfig()
	if cfg.DebounceMillis >= 0 {
		wc.DebounceDelay = time.Duration(cfg.DebounceMillis) * time.Millisecond
	}
	if cfg.MaxDebounceMillis > 0 {
		wc.MaxDebounceDelay = time.Duration(cfg.MaxDebounceMillis) * time.Millisecond
	}
	if cfg.QueueCapacity > 0 {
		wc.QueueCapacity = cfg.QueueCapacity
	}
	return wc
}

// NewWatcher creates the platform watcher.
func NewWatcher(config WatcherConfig) (Watcher, error) {
	return NewFSNotifyWatcher(config)
}
