package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls the login log queue.
type Config struct {
	Enabled    bool
	BufferSize int
	// Enrich runs on the worker goroutine before the sink sees an event.
	// It is where slow lookups (IP location, user agent parsing) belong.
	Enrich func(*Event)
}

// Dispatcher hands login events to a sink on a single background worker.
// A nil *Dispatcher is valid and discards everything.
type Dispatcher struct {
	sink    Sink
	enrich  func(*Event)
	queue   chan Event
	stopped chan struct{}
	dropped atomic.Uint64

	mu     sync.RWMutex // guards closed and the send on queue
	closed bool
}

// NewDispatcher starts the worker. It returns nil when cfg is disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}

	d := &Dispatcher{
		sink:    sink,
		enrich:  cfg.Enrich,
		queue:   make(chan Event, size),
		stopped: make(chan struct{}),
	}
	go d.work()
	return d
}

func (d *Dispatcher) work() {
	defer close(d.stopped)
	for ev := range d.queue {
		if d.enrich != nil {
			d.enrich(&ev)
		}
		d.sink.Emit(context.Background(), ev)
	}
}

// Emit queues event without ever blocking the caller. When the queue is full
// the event is counted in Dropped and discarded. The context is not used for
// delivery: an attempt that was recorded stays recorded after its request
// ends.
func (d *Dispatcher) Emit(_ context.Context, event Event) {
	if d == nil {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- event:
	default:
		d.dropped.Add(1)
	}
}

// Close stops intake and returns once every queued event reached the sink.
// It is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.stopped
}

// Dropped reports how many events were discarded on a full queue.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
