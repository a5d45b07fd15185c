package watcher

import (
	"context"
	"sync"
	"time"
)

// EventBatch represents a batch of events for the same path
type EventBatch struct {
	Path     string
	Events   []Event
	timer    *time.Timer
	maxTimer *time.Timer
}

// DebouncerImpl implements the Debouncer interface. A batch is flushed once its
// path has been quiet for delay, or maxDelay after its first event, whichever
// comes first.
type DebouncerImpl struct {
	delay         time.Duration
	maxDelay      time.Duration
	eventChan     chan []Event
	ctx           context.Context
	cancel        context.CancelFunc
	mu            sync.Mutex
	sendMu        sync.RWMutex
	closed        bool
	pendingEvents map[string]*EventBatch
}

// NewDebouncer creates a new debouncer
func NewDebouncer(delay, maxDelay time.Duration, queueCapacity int) *DebouncerImpl {
	ctx, cancel := context.WithCancel(context.Background())
	if maxDelay < delay {
		maxDelay = delay
	}

	return &DebouncerImpl{
		delay:         delay,
		maxDelay:      maxDelay,
		eventChan:     make(chan []Event, queueCapacity),
		ctx:           ctx,
		cancel:        cancel,
		pendingEvents: make(map[string]*EventBatch),
	}
}

// Add adds an event to be debounced
func (d *DebouncerImpl) Add(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	batch, exists := d.pendingEvents[event.Path]
	if !exists {
		batch = &EventBatch{
			Path:   event.Path,
			Events: make([]Event, 0, 4),
		}
		d.pendingEvents[event.Path] = batch
		batch.timer = time.AfterFunc(d.delay, func() { d.flush(batch) })
		batch.maxTimer = time.AfterFunc(d.maxDelay, func() { d.flush(batch) })
	} else {
		batch.timer.Reset(d.delay)
	}

	batch.Events = append(batch.Events, event)
}

// Events returns the debounced events channel
func (d *DebouncerImpl) Events() <-chan []Event {
	return d.eventChan
}

// flush delivers batch if it is still the pending batch for its path.
func (d *DebouncerImpl) flush(batch *EventBatch) {
	d.mu.Lock()
	if d.closed || d.pendingEvents[batch.Path] != batch {
		d.mu.Unlock()
		return
	}
	delete(d.pendingEvents, batch.Path)
	batch.timer.Stop()
	batch.maxTimer.Stop()
	d.mu.Unlock()

	d.sendMu.RLock()
	defer d.sendMu.RUnlock()

	select {
	case d.eventChan <- batch.Events:
	case <-d.ctx.Done():
	}
}

// Close stops the debouncer. Pending batches are discarded.
func (d *DebouncerImpl) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.cancel()

	for _, batch := range d.pendingEvents {
		batch.timer.Stop()
		batch.maxTimer.Stop()
	}
	d.pendingEvents = make(map[string]*EventBatch)
	d.mu.Unlock()

	// in-flight sends observe ctx and release sendMu
	d.sendMu.Lock()
	close(d.eventChan)
	d.sendMu.Unlock()
}

// Pending returns the number of paths with undelivered events.
func (d *DebouncerImpl) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pendingEvents)
}
