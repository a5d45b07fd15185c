package resource

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType is the kind of change a monitor reports.
type EventType int

const (
	EventCreated EventType = iota
	EventModified
	EventDeleted
)

// String returns a string representation of the EventType.
func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// ResourceEvent is one change under a monitored resource.
type ResourceEvent struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// MonitorHandle delivers events until closed. Close is idempotent and closes
// both channels.
type MonitorHandle interface {
	ID() string
	Events() <-chan ResourceEvent
	Errors() <-chan error
	Close() error
}

// MonitorService binds resources to a change-notification facility.
type MonitorService interface {
	Watch(ctx context.Context, r *PathResource, filter ResourceFilter) (MonitorHandle, error)
}

// NoopMonitorService returns handles that never report anything.
type NoopMonitorService struct{}

// Watch returns an idle handle. It is closed when ctx is done or Close is called.
func (NoopMonitorService) Watch(ctx context.Context, _ *PathResource, _ ResourceFilter) (MonitorHandle, error) {
	h := &noopHandle{
		id:     uuid.NewString(),
		events: make(chan ResourceEvent),
		errors: make(chan error),
		done:   make(chan struct{}),
	}
	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				h.Close()
			case <-h.done:
			}
		}()
	}
	return h, nil
}

type noopHandle struct {
	id     string
	events chan ResourceEvent
	errors chan error
	done   chan struct{}
	once   sync.Once
}

func (h *noopHandle) ID() string                   { return h.id }
func (h *noopHandle) Events() <-chan ResourceEvent { return h.events }
func (h *noopHandle) Errors() <-chan error         { return h.errors }

func (h *noopHandle) Close() error {
	h.once.Do(func() {
		close(h.done)
		close(h.events)
		close(h.errors)
	})
	return nil
}
