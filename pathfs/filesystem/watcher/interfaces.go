package watcher

import (
	"context"
	"time"
)

// EventType represents the type of file system event
type EventType int

const (
	// EventCreate represents file/directory creation
	EventCreate EventType = iota
	// EventWrite represents file modification
	EventWrite
	// EventRemove represents file/directory removal
	EventRemove
	// EventRename represents file/directory rename; Path is the old name
	EventRename
	// EventChmod represents permission changes
	EventChmod
)

// String returns a string representation of the EventType.
func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventWrite:
		return "write"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	case EventChmod:
		return "chmod"
	default:
		return "unknown"
	}
}

// Event represents a file system event
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// Watcher defines the interface for file system watching
type Watcher interface {
	// Start begins watching the specified paths. Cancelling ctx stops delivery.
	Start(ctx context.Context, paths []string) error

	// Events returns a channel of file system events
	Events() <-chan Event

	// Errors returns a channel of errors encountered during watching
	Errors() <-chan error

	// Close stops watching and closes both channels
	Close() error

	// Add adds paths to watch
	Add(paths ...string) error

	// Remove removes paths from watching
	Remove(paths ...string) error
}

// WatcherConfig holds configuration for the watcher
type WatcherConfig struct {
	// DebounceDelay is the quiet period per path before its events are delivered.
	// Zero disables debouncing.
	DebounceDelay time.Duration

	// MaxDebounceDelay caps how long a busy path can be held back
	MaxDebounceDelay time.Duration

	// QueueCapacity is the capacity of the event channels
	QueueCapacity int

	// Recursive adds every subdirectory of a watched directory, including
	// directories created while watching.
	Recursive bool
}

// Debouncer handles event debouncing
type Debouncer interface {
	// Add adds an event to be debounced
	Add(event Event)

	// Events returns debounced batches, one path per batch
	Events() <-chan []Event

	// Close stops the debouncer
	Close()
}
