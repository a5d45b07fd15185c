package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/pathresource/pathfs/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() WatcherConfig {
	return WatcherConfig{
		DebounceDelay:    20 * time.Millisecond,
		MaxDebounceDelay: 200 * time.Millisecond,
		QueueCapacity:    100,
		Recursive:        true,
	}
}

// collectUntil drains events until match reports true or the timeout passes.
func collectUntil(t *testing.T, ch <-chan Event, timeout time.Duration, match func(Event) bool) (Event, bool) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return Event{}, false
			}
			if match(ev) {
				return ev, true
			}
		case <-deadline:
			return Event{}, false
		}
	}
}

func TestFSNotifyWatcher_BasicFunctionality(t *testing.T) {
	watcher, err := NewFSNotifyWatcher(testConfig())
	require.NoError(t, err)
	require.NotNil(t, watcher)

	var _ Watcher = watcher

	err = watcher.Start(context.Background(), []string{})
	assert.NoError(t, err)

	assert.NoError(t, watcher.Close())
	assert.NoError(t, watcher.Close())

	_, open := <-watcher.Events()
	assert.False(t, open)
}

func TestFSNotifyWatcher_StartMissingPath(t *testing.T) {
	watcher, err := NewFSNotifyWatcher(testConfig())
	require.NoError(t, err)
	defer watcher.Close()

	err = watcher.Start(context.Background(), []string{filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestFSNotifyWatcher_PathOperations(t *testing.T) {
	watcher, err := NewFSNotifyWatcher(testConfig())
	require.NoError(t, err)
	defer watcher.Close()

	tempDir := t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, watcher.Start(ctx, []string{tempDir}))
	assert.ElementsMatch(t, []string{tempDir}, watcher.WatchedPaths())

	subDir := filepath.Join(tempDir, "subdir")
	require.NoError(t, os.MkdirAll(subDir, 0o755))

	assert.NoError(t, watcher.Add(subDir))
	assert.ElementsMatch(t, []string{tempDir, subDir}, watcher.WatchedPaths())

	assert.NoError(t, watcher.Remove(subDir))
	assert.ElementsMatch(t, []string{tempDir}, watcher.WatchedPaths())
}

func TestFSNotifyWatcher_ReportsWrites(t *testing.T) {
	watcher, err := NewFSNotifyWatcher(testConfig())
	require.NoError(t, err)
	defer watcher.Close()

	dir := t.TempDir()
	require.NoError(t, watcher.Start(context.Background(), []string{dir}))

	target := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(target, []byte("hello"), 0o644))

	ev, ok := collectUntil(t, watcher.Events(), 3*time.Second, func(ev Event) bool {
		return ev.Path == target
	})
	require.True(t, ok, "no event for %s", target)
	assert.Contains(t, []EventType{EventCreate, EventWrite}, ev.Type)
}

func TestFSNotifyWatcher_WatchesNewSubdirectories(t *testing.T) {
	watcher, err := NewFSNotifyWatcher(testConfig())
	require.NoError(t, err)
	defer watcher.Close()

	dir := t.TempDir()
	require.NoError(t, watcher.Start(context.Background(), []string{dir}))

	sub := filepath.Join(dir, "later")
	require.NoError(t, os.Mkdir(sub, 0o755))
	nested := filepath.Join(sub, "inner.txt")

	// the subdirectory is added asynchronously, so keep touching the file
	require.Eventually(t, func() bool {
		if err := os.WriteFile(nested, []byte(time.Now().String()), 0o644); err != nil {
			return false
		}
		_, seen := collectUntil(t, watcher.Events(), 100*time.Millisecond, func(ev Event) bool {
			return ev.Path == nested
		})
		return seen
	}, 5*time.Second, 50*time.Millisecond)
}

func TestFSNotifyWatcher_ContextStopsDelivery(t *testing.T) {
	watcher, err := NewFSNotifyWatcher(testConfig())
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, watcher.Start(ctx, []string{t.TempDir()}))
	cancel()

	select {
	case <-watcher.ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher context not cancelled")
	}
}

func TestDebouncer_BatchesPerPath(t *testing.T) {
	debouncer := NewDebouncer(50*time.Millisecond, 500*time.Millisecond, 10)
	defer debouncer.Close()

	var _ Debouncer = debouncer

	debouncer.Add(Event{Type: EventCreate, Path: "/test/file1.txt", Timestamp: time.Now()})
	debouncer.Add(Event{Type: EventWrite, Path: "/test/file1.txt", Timestamp: time.Now()})
	debouncer.Add(Event{Type: EventWrite, Path: "/test/file2.txt", Timestamp: time.Now()})

	batches := map[string][]Event{}
	for len(batches) < 2 {
		select {
		case events := <-debouncer.Events():
			require.NotEmpty(t, events)
			batches[events[0].Path] = events
		case <-time.After(2 * time.Second):
			t.Fatalf("expected two batches, got %d", len(batches))
		}
	}

	require.Len(t, batches["/test/file1.txt"], 2)
	assert.Equal(t, EventWrite, Coalesce(batches["/test/file1.txt"]).Type)
	assert.Len(t, batches["/test/file2.txt"], 1)
	assert.Zero(t, debouncer.Pending())
}

func TestDebouncer_MaxDelayFlushesBusyPath(t *testing.T) {
	debouncer := NewDebouncer(100*time.Millisecond, 150*time.Millisecond, 10)
	defer debouncer.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				debouncer.Add(Event{Type: EventWrite, Path: "/busy", Timestamp: time.Now()})
			}
		}
	}()

	select {
	case events := <-debouncer.Events():
		assert.NotEmpty(t, events)
		assert.Equal(t, "/busy", events[0].Path)
	case <-time.After(2 * time.Second):
		t.Fatal("busy path was never flushed")
	}
}

func TestDebouncer_CloseDiscardsPending(t *testing.T) {
	debouncer := NewDebouncer(time.Hour, time.Hour, 10)
	debouncer.Add(Event{Type: EventWrite, Path: "/pending"})
	assert.Equal(t, 1, debouncer.Pending())

	debouncer.Close()
	debouncer.Close()
	debouncer.Add(Event{Type: EventWrite, Path: "/after-close"})

	_, open := <-debouncer.Events()
	assert.False(t, open)
	assert.Zero(t, debouncer.Pending())
}

func TestWatcherConfig_DefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.True(t, config.DebounceDelay > 0)
	assert.True(t, config.MaxDebounceDelay > config.DebounceDelay)
	assert.True(t, config.QueueCapacity > 0)
	assert.True(t, config.Recursive)
}

func TestFromConfig(t *testing.T) {
	wc := FromConfig(config.MonitorConfig{DebounceMillis: 250, MaxDebounceMillis: 1000, QueueCapacity: 5})
	assert.Equal(t, 250*time.Millisecond, wc.DebounceDelay)
	assert.Equal(t, time.Second, wc.MaxDebounceDelay)
	assert.Equal(t, 5, wc.QueueCapacity)

	zero := FromConfig(config.MonitorConfig{})
	assert.Zero(t, zero.DebounceDelay)
	assert.Equal(t, DefaultConfig().QueueCapacity, zero.QueueCapacity)
}

func TestEventTypes(t *testing.T) {
	assert.Equal(t, EventType(0), EventCreate)
	assert.Equal(t, EventType(1), EventWrite)
	assert.Equal(t, EventType(2), EventRemove)
	assert.Equal(t, EventType(3), EventRename)
	assert.Equal(t, EventType(4), EventChmod)
	assert.Equal(t, "rename", EventRename.String())
}
