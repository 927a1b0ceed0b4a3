package goBearer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Uint64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

type captureSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *captureSink) Emit(_ context.Context, event AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) Events() []AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}

// gateSink blocks every Emit until released, simulating a slow sink.
type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func TestAuditDispatcherDisabled(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, &countingSink{})
	if d != nil {
		t.Fatal("disabled audit config produced a dispatcher")
	}

	// nil dispatcher must be inert.
	d.Emit(context.Background(), AuditEvent{EventType: eventTokenHarvest})
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
	d.Close()
}

func TestAuditDispatcherDeliversAndDrains(t *testing.T) {
	sink := &captureSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{
			EventType: eventRefreshSuccess,
			Status:    200,
			Success:   true,
		})
	}
	d.Close()

	events := sink.Events()
	if len(events) != 10 {
		t.Fatalf("delivered %d events, want 10", len(events))
	}
	if events[0].EventType != eventRefreshSuccess {
		t.Fatalf("unexpected event type %q", events[0].EventType)
	}
}

func TestAuditDispatcherDropIfFull(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 2, DropIfFull: true}, sink)

	// The worker parks on the gated sink; the buffer fills and the rest drop.
	// One extra event may be consumed off the channel before the worker
	// blocks, so overfill well past the buffer.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: eventRetryFailure})
	}

	if d.Dropped() == 0 {
		t.Fatal("expected drops with a full buffer and DropIfFull")
	}

	close(sink.gate)
	d.Close()
}

func TestAuditDispatcherBlockingEmitHonorsContext(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	// Fill the buffer and give the worker a moment to park on the sink.
	d.Emit(context.Background(), AuditEvent{EventType: eventRetrySuccess})
	time.Sleep(20 * time.Millisecond)
	d.Emit(context.Background(), AuditEvent{EventType: eventRetrySuccess})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		d.Emit(ctx, AuditEvent{EventType: eventRetrySuccess})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("blocking Emit did not return after context cancellation")
	}
}

func TestAuditDispatcherEmitAfterClose(t *testing.T) {
	sink := &countingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, sink)
	d.Close()

	d.Emit(context.Background(), AuditEvent{EventType: eventTokenHarvest})
	if got := sink.count.Load(); got != 0 {
		t.Fatalf("event delivered after close: %d", got)
	}
}

func TestChannelSink(t *testing.T) {
	sink := NewChannelSink(4)
	sink.Emit(context.Background(), AuditEvent{EventType: eventTokensPurged, Status: 401})

	select {
	case ev := <-sink.Events():
		if ev.EventType != eventTokensPurged || ev.Status != 401 {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
		t.Fatal("event not buffered")
	}

	// Full buffer with a cancelled context must not block.
	full := NewChannelSink(1)
	full.Emit(context.Background(), AuditEvent{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	full.Emit(ctx, AuditEvent{})
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		EventType: eventRefreshFailure,
		RequestID: "req-1",
		Status:    500,
		Error:     "upstream unavailable",
	})
	sink.Emit(context.Background(), AuditEvent{
		EventType: eventRefreshSuccess,
		Success:   true,
	})

	scanner := bufio.NewScanner(&buf)
	var lines int
	for scanner.Scan() {
		lines++
		var ev AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		if ev.EventType == "" {
			t.Fatalf("line %d missing event_type", lines)
		}
	}
	if lines != 2 {
		t.Fatalf("wrote %d lines, want 2", lines)
	}
}
