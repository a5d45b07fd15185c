package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FSNotifyWatcher implements the Watcher interface using fsnotify. With a
// debounce delay configured, each debounced batch is delivered as its last event.
type FSNotifyWatcher struct {
	watcher      *fsnotify.Watcher
	eventChan    chan Event
	errorChan    chan error
	debouncer    Debouncer
	config       WatcherConfig
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
	watchedPaths map[string]bool
	closeOnce    sync.Once
}

// NewFSNotifyWatcher creates a new fsnotify-based watcher
func NewFSNotifyWatcher(config WatcherConfig) (*FSNotifyWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if config.QueueCapacity <= 0 {
		config.QueueCapacity = DefaultConfig().QueueCapacity
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &FSNotifyWatcher{
		watcher:      fsWatcher,
		eventChan:    make(chan Event, config.QueueCapacity),
		errorChan:    make(chan error, 10),
		config:       config,
		ctx:          ctx,
		cancel:       cancel,
		watchedPaths: make(map[string]bool),
	}

	if config.DebounceDelay > 0 {
		w.debouncer = NewDebouncer(config.DebounceDelay, config.MaxDebounceDelay, config.QueueCapacity)
	}

	return w, nil
}

// Start begins watching the specified paths
func (w *FSNotifyWatcher) Start(ctx context.Context, paths []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, path := range paths {
		if err := w.addPath(path); err != nil {
			return fmt.Errorf("failed to add path %s: %w", path, err)
		}
		w.watchedPaths[path] = true
	}

	if ctx != nil {
		context.AfterFunc(ctx, w.cancel)
	}

	w.wg.Add(1)
	go w.processEvents()

	w.wg.Add(1)
	go w.watchLoop()

	slog.Debug("FSNotify watcher started", "paths", len(paths), "recursive", w.config.Recursive)
	return nil
}

// Events returns the event channel
func (w *FSNotifyWatcher) Events() <-chan Event {
	return w.eventChan
}

// Errors returns the error channel
func (w *FSNotifyWatcher) Errors() <-chan error {
	return w.errorChan
}

// Add adds paths to watch
func (w *FSNotifyWatcher) Add(paths ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, path := range paths {
		if err := w.addPath(path); err != nil {
			return fmt.Errorf("failed to add path %s: %w", path, err)
		}
		w.watchedPaths[path] = true
	}

	slog.Debug("Added paths to watcher", "count", len(paths))
	return nil
}

// Remove removes paths from watching
func (w *FSNotifyWatcher) Remove(paths ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, path := range paths {
		if err := w.watcher.Remove(path); err != nil {
			slog.Warn("Failed to remove path from watcher", "path", path, "error", err)
		}
		delete(w.watchedPaths, path)
	}

	slog.Debug("Removed paths from watcher", "count", len(paths))
	return nil
}

// WatchedPaths returns the paths passed to Start and Add that are still watched.
func (w *FSNotifyWatcher) WatchedPaths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	paths := make([]string, 0, len(w.watchedPaths))
	for p := range w.watchedPaths {
		paths = append(paths, p)
	}
	return paths
}

// Close stops watching and cleans up resources. It is safe to call more than once.
func (w *FSNotifyWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.cancel()

		if closeErr := w.watcher.Close(); closeErr != nil {
			slog.Warn("Error closing fsnotify watcher", "error", closeErr)
			err = closeErr
		}

		if w.debouncer != nil {
			w.debouncer.Close()
		}

		w.wg.Wait()

		close(w.eventChan)
		close(w.errorChan)

		slog.Debug("FSNotify watcher closed")
	})
	return err
}

// addPath watches path, and its subdirectories when recursive.
func (w *FSNotifyWatcher) addPath(rootPath string) error {
	if err := w.watcher.Add(rootPath); err != nil {
		return err
	}
	if !w.config.Recursive {
		return nil
	}

	return filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// a directory may vanish mid-walk
			slog.Debug("Skipping path during watch walk", "path", path, "error", err)
			return nil
		}
		if d.IsDir() && path != rootPath {
			if err := w.watcher.Add(path); err != nil {
				slog.Warn("Failed to add subdirectory to watcher", "path", path, "error", err)
			}
		}
		return nil
	})
}

// watchLoop is the main event processing loop
func (w *FSNotifyWatcher) watchLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			watcherEvent := convertEvent(event)
			if watcherEvent == nil {
				continue
			}

			if watcherEvent.Type == EventCreate && w.config.Recursive {
				w.watchNewDirectory(watcherEvent.Path)
			}

			if w.debouncer != nil {
				w.debouncer.Add(*watcherEvent)
			} else {
				w.deliver(*watcherEvent)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			select {
			case w.errorChan <- err:
			case <-w.ctx.Done():
				return
			default:
				slog.Warn("Error channel full, dropping error", "error", err)
			}
		}
	}
}

func (w *FSNotifyWatcher) watchNewDirectory(path string) {
	info, err := os.Lstat(path)
	if err != nil || !info.IsDir() {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.addPath(path); err != nil {
		slog.Warn("Failed to watch new directory", "path", path, "error", err)
	}
}

// processEvents forwards debounced batches, one event per batch
func (w *FSNotifyWatcher) processEvents() {
	defer w.wg.Done()

	if w.debouncer == nil {
		return
	}

	for {
		select {
		case <-w.ctx.Done():
			return

		case events, ok := <-w.debouncer.Events():
			if !ok {
				return
			}
			if len(events) == 0 {
				continue
			}
			w.deliver(Coalesce(events))
		}
	}
}

func (w *FSNotifyWatcher) deliver(event Event) {
	select {
	case w.eventChan <- event:
	case <-w.ctx.Done():
	default:
		slog.Warn("Event channel full, dropping event", "path", event.Path, "type", event.Type)
	}
}

// Coalesce reduces a batch for one path to its last event.
func Coalesce(events []Event) Event {
	return events[len(events)-1]
}

// convertEvent converts fsnotify.Event to watcher.Event
func convertEvent(event fsnotify.Event) *Event {
	var eventType EventType

	switch {
	case event.Has(fsnotify.Create):
		eventType = EventCreate
	case event.Has(fsnotify.Write):
		eventType = EventWrite
	case event.Has(fsnotify.Remove):
		eventType = EventRemove
	case event.Has(fsnotify.Rename):
		eventType = EventRename
	case event.Has(fsnotify.Chmod):
		eventType = EventChmod
	default:
		return nil
	}

	return &Event{
		Type:      eventType,
		Path:      filepath.Clean(event.Name),
		Timestamp: time.Now(),
	}
}
