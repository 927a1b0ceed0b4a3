package goBearer

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher decouples the pipeline from sink latency: RoundTrip and the
// refresh coordinator enqueue and move on, one worker goroutine feeds the
// sink. Events already queued when Close is called are always delivered.
type auditDispatcher struct {
	sink       AuditSink
	queue      chan AuditEvent
	stop       chan struct{}
	finished   chan struct{}
	dropIfFull bool

	dropped  atomic.Uint64
	stopOnce sync.Once
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}

	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		sink:       sink,
		queue:      make(chan AuditEvent, buffer),
		stop:       make(chan struct{}),
		finished:   make(chan struct{}),
		dropIfFull: cfg.DropIfFull,
	}
	go d.loop()
	return d
}

// loop feeds the sink. Queued events take priority over the stop signal, so
// everything accepted before Close reaches the sink.
func (d *auditDispatcher) loop() {
	defer close(d.finished)

	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
			continue
		default:
		}

		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		case <-d.stop:
			d.drain()
			return
		}
	}
}

func (d *auditDispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		default:
			return
		}
	}
}

// Emit enqueues one event. In drop-if-full mode the call never blocks and
// overflow is counted; otherwise it waits for buffer space until ctx ends.
// After Close every event is discarded silently.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil {
		return
	}
	select {
	case <-d.stop:
		return
	default:
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.queue <- event:
	case <-ctx.Done():
	case <-d.stop:
	}
}

// Dropped reports events discarded under backpressure.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Close stops intake, delivers the remaining queue, and waits for the worker.
// Safe to call more than once.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		close(d.stop)
	})
	<-d.finished
}
