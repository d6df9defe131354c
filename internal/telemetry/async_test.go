package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MatheusAFD/mono-repo-auth/internal/telemetry/domain"
)

// mockEventEmitter implements EventEmitter for tests.
type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*domain.Event
	emitErr error
	delay   time.Duration
	done    chan struct{}
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *domain.Event) error {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.delay):
		}
	}
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return m.emitErr
}

func (m *mockEventEmitter) getEvents() []*domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Event(nil), m.events...)
}

func waitFor(t *testing.T, ch <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for emit %d of %d", i+1, n)
		}
	}
}

func TestEmitAsync_NilInputs(t *testing.T) {
	EmitAsync(nil, context.Background(), &domain.Event{Type: domain.EventSessionRevoked})
	emitter := &mockEventEmitter{}
	EmitAsync(emitter, context.Background(), nil)
	time.Sleep(20 * time.Millisecond)
	if len(emitter.getEvents()) != 0 {
		t.Error("nil event should not be emitted")
	}
}

func TestEmitAsync_SurvivesCancelledRequest(t *testing.T) {
	emitter := &mockEventEmitter{done: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	EmitAsync(emitter, ctx, &domain.Event{Type: domain.EventSessionRevoked, UserID: "user-1"})
	waitFor(t, emitter.done, 1)

	events := emitter.getEvents()
	if len(events) != 1 || events[0].UserID != "user-1" {
		t.Fatalf("events = %+v, want one event for user-1", events)
	}
}

func TestEmitAsync_ErrorDoesNotPanic(t *testing.T) {
	emitter := &mockEventEmitter{emitErr: errors.New("kafka down"), done: make(chan struct{}, 1)}
	EmitAsync(emitter, context.Background(), &domain.Event{Type: domain.EventSessionCreated})
	waitFor(t, emitter.done, 1)
}

func TestEmitAsync_Concurrent(t *testing.T) {
	emitter := &mockEventEmitter{done: make(chan struct{}, 10)}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			EmitAsync(emitter, context.Background(), &domain.Event{Type: domain.EventSessionCreated})
		}()
	}
	wg.Wait()
	waitFor(t, emitter.done, 10)
	if got := len(emitter.getEvents()); got != 10 {
		t.Errorf("expected 10 events, got %d", got)
	}
}

func TestFanout_EmitsToAllAndJoinsErrors(t *testing.T) {
	a := &mockEventEmitter{}
	b := &mockEventEmitter{emitErr: errors.New("b failed")}
	f := Fanout{a, nil, b}

	err := f.Emit(context.Background(), &domain.Event{Type: domain.EventSessionSignedOut})
	if err == nil {
		t.Fatal("expected joined error")
	}
	if len(a.getEvents()) != 1 || len(b.getEvents()) != 1 {
		t.Error("every emitter should receive the event")
	}
}
