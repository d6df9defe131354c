package sweeper

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/MatheusAFD/mono-repo-auth/internal/metrics"
	"github.com/MatheusAFD/mono-repo-auth/internal/telemetry/domain"
)

type fakeRepo struct {
	mu     sync.Mutex
	tokens []string
	err    error
	calls  int
	at     time.Time
}

func (f *fakeRepo) DeleteExpired(ctx context.Context, now time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.at = now
	if f.err != nil {
		return nil, f.err
	}
	out := f.tokens
	f.tokens = nil
	return out, nil
}

func (f *fakeRepo) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type captureEmitter struct {
	events []*domain.Event
}

func (c *captureEmitter) Emit(ctx context.Context, ev *domain.Event) error {
	c.events = append(c.events, ev)
	return nil
}

func TestSweepOnce_DeletesAndEmits(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeRepo{tokens: []string{"a", "b", "c"}}
	events := &captureEmitter{}
	s := New(repo, events, time.Hour, nil)
	s.now = func() time.Time { return now }
	before := testutil.ToFloat64(metrics.SessionsSweptTotal)

	n, err := s.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if n != 3 {
		t.Errorf("n = %d, want 3", n)
	}
	if !repo.at.Equal(now) {
		t.Errorf("DeleteExpired now = %v, want %v", repo.at, now)
	}
	if got := testutil.ToFloat64(metrics.SessionsSweptTotal) - before; got != 3 {
		t.Errorf("swept counter delta = %v, want 3", got)
	}
	if len(events.events) != 1 {
		t.Fatalf("events = %d, want 1", len(events.events))
	}
	ev := events.events[0]
	if ev.Type != domain.EventSessionExpired || ev.Source != "worker" {
		t.Errorf("event = %+v", ev)
	}
	var meta sweptMetadata
	if err := json.Unmarshal(ev.Metadata, &meta); err != nil || meta.Count != 3 {
		t.Errorf("metadata = %s (%v)", ev.Metadata, err)
	}
}

func TestSweepOnce_NothingExpired(t *testing.T) {
	events := &captureEmitter{}
	n, err := New(&fakeRepo{}, events, time.Hour, nil).SweepOnce(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("SweepOnce = %d, %v", n, err)
	}
	if len(events.events) != 0 {
		t.Errorf("emitted %d events for an empty sweep", len(events.events))
	}
}

func TestSweepOnce_Error(t *testing.T) {
	want := errors.New("db down")
	_, err := New(&fakeRepo{err: want}, nil, time.Hour, nil).SweepOnce(context.Background())
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestRun_SweepsImmediatelyAndStops(t *testing.T) {
	repo := &fakeRepo{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		New(repo, nil, time.Hour, nil).Run(ctx)
		close(done)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for repo.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if repo.callCount() != 1 {
		t.Errorf("calls = %d, want 1", repo.callCount())
	}
}
