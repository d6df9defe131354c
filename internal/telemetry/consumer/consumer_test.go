package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

// fakeReader returns queued messages, then blocks until ctx is done.
type fakeReader struct {
	mu     sync.Mutex
	queue  []kafka.Message
	errs   []error
	closed bool
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		f.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(f.queue) > 0 {
		m := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type fakeSink struct {
	mu     sync.Mutex
	pushed []string
	failOn string
	done   chan struct{}
	want   int
}

func (s *fakeSink) PushEventJSON(ctx context.Context, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushed = append(s.pushed, string(raw))
	if len(s.pushed) == s.want {
		close(s.done)
	}
	if string(raw) == s.failOn {
		return errors.New("loki unavailable")
	}
	return nil
}

func runUntil(t *testing.T, c *Consumer, sink *fakeSink) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- c.Run(ctx) }()
	select {
	case <-sink.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pushes")
	}
	cancel()
	select {
	case err := <-result:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_PushesEveryMessage(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{{Value: []byte(`{"id":"1"}`)}, {Value: []byte(`{"id":"2"}`)}}}
	sink := &fakeSink{done: make(chan struct{}), want: 2}
	runUntil(t, newConsumer(reader, sink, nil), sink)
	if len(sink.pushed) != 2 || sink.pushed[0] != `{"id":"1"}` || sink.pushed[1] != `{"id":"2"}` {
		t.Errorf("pushed = %v", sink.pushed)
	}
}

func TestRun_ContinuesAfterErrors(t *testing.T) {
	reader := &fakeReader{
		errs:  []error{errors.New("broker hiccup")},
		queue: []kafka.Message{{Value: []byte("bad")}, {Value: []byte("good")}},
	}
	sink := &fakeSink{done: make(chan struct{}), want: 2, failOn: "bad"}
	runUntil(t, newConsumer(reader, sink, nil), sink)
	if len(sink.pushed) != 2 || sink.pushed[1] != "good" {
		t.Errorf("pushed = %v", sink.pushed)
	}
}

func TestClose(t *testing.T) {
	reader := &fakeReader{}
	if err := newConsumer(reader, &fakeSink{}, nil).Close(); err != nil {
		t.Fatal(err)
	}
	if !reader.closed {
		t.Error("reader not closed")
	}
}
