package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockEventEmitter implements EventEmitter for tests.
type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*Event
	emitErr error
	done    chan struct{}
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *Event) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return m.emitErr
}

func (m *mockEventEmitter) getEvents() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Event(nil), m.events...)
}

func waitEmits(t *testing.T, ch chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for emit %d of %d", i+1, n)
		}
	}
}

func TestEmitAsync_NilEmitterOrEvent(t *testing.T) {
	EmitAsync(nil, context.Background(), NewEvent("T1", "test", "test", nil))

	emitter := &mockEventEmitter{}
	EmitAsync(emitter, context.Background(), nil)
	time.Sleep(10 * time.Millisecond)
	if len(emitter.getEvents()) != 0 {
		t.Error("nil event should not be emitted")
	}
}

func TestEmitAsync_CancelledRequestContextStillEmits(t *testing.T) {
	emitter := &mockEventEmitter{done: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	EmitAsync(emitter, ctx, NewEvent("T1", EventMessageReplied, "pipeline", map[string]string{"k": "v"}))
	waitEmits(t, emitter.done, 1)

	events := emitter.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].TenantID != "T1" || events[0].EventType != EventMessageReplied {
		t.Errorf("event = %+v", events[0])
	}
	if string(events[0].Metadata) != `{"k":"v"}` {
		t.Errorf("metadata = %s", events[0].Metadata)
	}
}

func TestEmitAsync_ErrorIsSwallowed(t *testing.T) {
	emitter := &mockEventEmitter{emitErr: errors.New("broker down"), done: make(chan struct{}, 1)}
	EmitAsync(emitter, context.Background(), NewEvent("T1", "test", "test", nil))
	waitEmits(t, emitter.done, 1)
}

func TestEmitAsync_Concurrent(t *testing.T) {
	emitter := &mockEventEmitter{done: make(chan struct{}, 10)}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			EmitAsync(emitter, context.Background(), NewEvent("T1", "test", "test", nil))
		}()
	}
	wg.Wait()
	waitEmits(t, emitter.done, 10)
	if n := len(emitter.getEvents()); n != 10 {
		t.Errorf("expected 10 events, got %d", n)
	}
}

func TestNewEvent(t *testing.T) {
	e := NewEvent("T1", EventSessionStatus, "lifecycle", nil)
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Errorf("event = %+v", e)
	}
	if e.Metadata != nil {
		t.Errorf("Metadata = %s, want nil", e.Metadata)
	}
	bad := NewEvent("T1", "x", "y", make(chan int))
	if bad.Metadata != nil {
		t.Error("unencodable metadata should be dropped")
	}
}

func TestFanout(t *testing.T) {
	a := &mockEventEmitter{}
	b := &mockEventEmitter{emitErr: errors.New("b failed")}
	c := &mockEventEmitter{}
	err := Fanout{a, nil, b, c}.Emit(context.Background(), NewEvent("T1", "x", "y", nil))
	if err == nil {
		t.Error("Fanout should report the failing emitter")
	}
	if len(a.getEvents()) != 1 || len(c.getEvents()) != 1 {
		t.Error("every emitter should receive the event")
	}
}
