package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/ZanzyTHEbar/pathresource/pathfs/filesystem/common"
	"github.com/ZanzyTHEbar/pathresource/pathfs/resource"

	"github.com/google/uuid"
)

// MonitorService implements resource.MonitorService on top of fsnotify. Each
// handle owns its own watcher. Directories are watched recursively; a file is
// watched through its parent directory and only its own events are delivered.
type MonitorService struct {
	config   WatcherConfig
	errUtils *common.ErrorUtils
}

var _ resource.MonitorService = (*MonitorService)(nil)

// NewMonitorService creates a service whose handles use config.
func NewMonitorService(config WatcherConfig) *MonitorService {
	return &MonitorService{config: config, errUtils: common.NewErrorUtils()}
}

// Watch starts monitoring r. The handle closes when ctx is done or Close is called.
func (s *MonitorService) Watch(ctx context.Context, r *resource.PathResource, filter resource.ResourceFilter) (resource.MonitorHandle, error) {
	if r == nil {
		return nil, common.NewPreconditionViolation("monitor", "", common.ErrNilTarget)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	path := r.Path()
	cfg := s.config
	root, only := path, ""
	if !r.IsDirectory() {
		root, only = filepath.Dir(path), path
		cfg.Recursive = false
	}

	w, err := NewFSNotifyWatcher(cfg)
	if err != nil {
		return nil, s.errUtils.HandleOperationError(common.NewIOFailure("monitor", path, err), "monitor", path, true)
	}
	if err := w.Start(ctx, []string{root}); err != nil {
		w.Close()
		return nil, s.errUtils.HandleOperationError(common.NewIOFailure("monitor", path, err), "monitor", path, true)
	}

	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = DefaultConfig().QueueCapacity
	}

	h := &monitorHandle{
		id:       uuid.NewString(),
		resource: r,
		only:     only,
		filter:   filter,
		watcher:  w,
		events:   make(chan resource.ResourceEvent, capacity),
		errors:   make(chan error, 10),
		stop:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}

	go h.loop()
	go func() {
		select {
		case <-ctx.Done():
			h.Close()
		case <-h.stop:
		}
	}()

	slog.Debug("Monitor started", "id", h.id, "path", path, "root", root)
	return h, nil
}

type monitorHandle struct {
	id       string
	resource *resource.PathResource
	only     string
	filter   resource.ResourceFilter
	watcher  *FSNotifyWatcher

	events   chan resource.ResourceEvent
	errors   chan error
	stop     chan struct{}
	loopDone chan struct{}
	once     sync.Once
}

func (h *monitorHandle) ID() string                            { return h.id }
func (h *monitorHandle) Events() <-chan resource.ResourceEvent { return h.events }
func (h *monitorHandle) Errors() <-chan error                  { return h.errors }

// Close stops the watcher and closes both channels. It is idempotent.
func (h *monitorHandle) Close() error {
	var err error
	h.once.Do(func() {
		close(h.stop)
		<-h.loopDone
		err = h.watcher.Close()
		close(h.events)
		close(h.errors)
		slog.Debug("Monitor closed", "id", h.id)
	})
	return err
}

func (h *monitorHandle) loop() {
	defer close(h.loopDone)

	for {
		select {
		case <-h.stop:
			return

		case ev, ok := <-h.watcher.Events():
			if !ok {
				return
			}
			if out, keep := h.translate(ev); keep {
				h.send(out)
			}

		case err, ok := <-h.watcher.Errors():
			if !ok {
				return
			}
			select {
			case h.errors <- common.NewIOFailure("monitor", h.resource.Path(), err):
			default:
				slog.Warn("Monitor error channel full, dropping error", "id", h.id, "error", err)
			}
		}
	}
}

// translate maps a watcher event onto the resource event vocabulary and applies
// the file narrowing and the filter.
func (h *monitorHandle) translate(ev Event) (resource.ResourceEvent, bool) {
	if h.only != "" && ev.Path != h.only {
		return resource.ResourceEvent{}, false
	}

	if h.filter != nil && !h.filter.Accept(h.subject(ev.Path)) {
		return resource.ResourceEvent{}, false
	}

	return resource.ResourceEvent{
		Type:      toResourceEventType(ev.Type),
		Path:      ev.Path,
		Timestamp: ev.Timestamp,
	}, true
}

// registry is the lookup side of a factory that interns resources.
type registry interface {
	Lookup(path string) (*resource.PathResource, bool)
}

// subject returns the registered resource for path, or a detached one so that
// event paths are never added to the factory.
func (h *monitorHandle) subject(path string) *resource.PathResource {
	if reg, ok := h.resource.Factory().(registry); ok {
		if r, found := reg.Lookup(path); found {
			return r
		}
	}
	return resource.New(nil, path, nil)
}

func (h *monitorHandle) send(ev resource.ResourceEvent) {
	select {
	case h.events <- ev:
	default:
		slog.Warn("Monitor buffer full, dropping event", "id", h.id, "path", ev.Path, "type", ev.Type)
	}
}

func toResourceEventType(t EventType) resource.EventType {
	switch t {
	case EventCreate:
		return resource.EventCreated
	case EventRemove, EventRename:
		return resource.EventDeleted
	default:
		return resource.EventModified
	}
}
