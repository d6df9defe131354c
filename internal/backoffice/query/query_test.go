package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MatheusAFD/mono-repo-auth/pkg/result"
)

type counter struct {
	calls atomic.Int32
	err   error
	value []string
}

func (c *counter) fetch(ctx context.Context) result.Result[[]string] {
	c.calls.Add(1)
	if c.err != nil {
		return result.Err[[]string](c.err)
	}
	return result.Ok(c.value)
}

func TestQuery_FreshValueIsCached(t *testing.T) {
	qc := NewClient(time.Minute)
	src := &counter{value: []string{"a"}}
	q := NewQuery(qc, "items", src.fetch)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := q.Fetch(ctx).Unwrap()
		if err != nil || len(got) != 1 || got[0] != "a" {
			t.Fatalf("Fetch = %v, %v", got, err)
		}
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestQuery_StaleAfterStaleTime(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	qc := NewClient(time.Minute)
	qc.now = func() time.Time { return now }
	src := &counter{value: []string{"a"}}
	q := NewQuery(qc, "items", src.fetch)

	q.Fetch(context.Background())
	now = now.Add(2 * time.Minute)
	if !qc.IsStale("items") {
		t.Fatal("entry should be stale")
	}
	q.Fetch(context.Background())
	if n := src.calls.Load(); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
}

func TestQuery_InvalidateForcesRefetch(t *testing.T) {
	qc := NewClient(time.Hour)
	src := &counter{value: []string{"a"}}
	q := NewQuery(qc, "items", src.fetch)
	q.Fetch(context.Background())

	qc.Invalidate("items")
	if v, ok := q.Data(); !ok || len(v) != 1 {
		t.Errorf("Data after invalidate = %v, %v; cached value should stay readable", v, ok)
	}
	q.Fetch(context.Background())
	if n := src.calls.Load(); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
}

func TestQuery_ConcurrentFetchesShareOneCall(t *testing.T) {
	qc := NewClient(time.Hour)
	release := make(chan struct{})
	var calls atomic.Int32
	q := NewQuery(qc, "items", func(ctx context.Context) result.Result[int] {
		calls.Add(1)
		<-release
		return result.Ok(7)
	})

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _ := q.Fetch(context.Background()).Unwrap()
			results[i] = v
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
	for i, v := range results {
		if v != 7 {
			t.Errorf("results[%d] = %d, want 7", i, v)
		}
	}
}

func TestQuery_ErrorKeepsPreviousData(t *testing.T) {
	qc := NewClient(0)
	src := &counter{value: []string{"a"}}
	q := NewQuery(qc, "items", src.fetch)
	q.Fetch(context.Background())

	src.err = errors.New("offline")
	if res := q.Fetch(context.Background()); res.IsOk() {
		t.Fatal("expected failure")
	}
	if v, ok := q.Data(); !ok || v[0] != "a" {
		t.Errorf("Data = %v, %v", v, ok)
	}
	if _, _, err := qc.Peek("items"); err == nil {
		t.Error("Peek should report the last error")
	}
}

func TestQuery_OnFocus(t *testing.T) {
	qc := NewClient(time.Hour)
	src := &counter{value: []string{"a"}}
	q := NewQuery(qc, "items", src.fetch)

	if _, refetched := q.OnFocus(context.Background()); refetched {
		t.Error("OnFocus refetched without RefetchOnFocus")
	}
	q.RefetchOnFocus = true
	q.Fetch(context.Background())
	if _, refetched := q.OnFocus(context.Background()); !refetched {
		t.Error("OnFocus did not refetch")
	}
	if n := src.calls.Load(); n != 2 {
		t.Errorf("calls = %d, want 2 (focus bypasses freshness)", n)
	}
}

func TestMutation_InvalidatesOnSuccessOnly(t *testing.T) {
	qc := NewClient(time.Hour)
	src := &counter{value: []string{"a"}}
	NewQuery(qc, "items", src.fetch).Fetch(context.Background())

	failing := NewMutation(qc, func(ctx context.Context, id string) result.Result[bool] {
		return result.Err[bool](errors.New("nope"))
	}, "items")
	if res := failing.Mutate(context.Background(), "x"); res.IsOk() {
		t.Fatal("expected failure")
	}
	if qc.IsStale("items") {
		t.Error("failed mutation invalidated the cache")
	}

	ok := NewMutation(qc, func(ctx context.Context, id string) result.Result[bool] {
		return result.Ok(true)
	}, "items")
	if res := ok.Mutate(context.Background(), "x"); !res.IsOk() {
		t.Fatal(res.Error())
	}
	if !qc.IsStale("items") {
		t.Error("successful mutation did not invalidate the cache")
	}
	if v, has := NewQuery(qc, "items", src.fetch).Data(); !has || v[0] != "a" {
		t.Error("mutation changed cached data")
	}
}

func TestMutation_Pending(t *testing.T) {
	qc := NewClient(time.Hour)
	started := make(chan struct{})
	release := make(chan struct{})
	m := NewMutation(qc, func(ctx context.Context, _ struct{}) result.Result[int] {
		close(started)
		<-release
		return result.Ok(1)
	})
	done := make(chan struct{})
	go func() {
		m.Mutate(context.Background(), struct{}{})
		close(done)
	}()
	<-started
	if !m.Pending() {
		t.Error("Pending = false during Mutate")
	}
	close(release)
	<-done
	if m.Pending() {
		t.Error("Pending = true after Mutate")
	}
}

func TestMutation_InvalidateDuringFetchIsNotLost(t *testing.T) {
	qc := NewClient(time.Hour)
	var (
		mu    sync.Mutex
		rows  = []string{"a", "b"}
		calls atomic.Int32
	)
	started := make(chan struct{})
	release := make(chan struct{})
	q := NewQuery(qc, "items", func(ctx context.Context) result.Result[[]string] {
		mu.Lock()
		snapshot := append([]string(nil), rows...)
		mu.Unlock()
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return result.Ok(snapshot)
	})
	remove := NewMutation(qc, func(ctx context.Context, id string) result.Result[bool] {
		mu.Lock()
		defer mu.Unlock()
		rows = []string{"b"}
		return result.Ok(true)
	}, "items")

	done := make(chan result.Result[[]string], 1)
	go func() { done <- q.Refetch(context.Background()) }()
	<-started
	if res := remove.Mutate(context.Background(), "a"); !res.IsOk() {
		t.Fatal(res.Error())
	}
	close(release)

	got, err := (<-done).Unwrap()
	if err != nil || len(got) != 1 || got[0] != "b" {
		t.Errorf("in-flight refetch = %v, %v; want [b]", got, err)
	}
	got, err = q.Fetch(context.Background()).Unwrap()
	if err != nil || len(got) != 1 || got[0] != "b" {
		t.Errorf("Fetch after revoke = %v, %v; want [b]", got, err)
	}
	if qc.IsStale("items") {
		t.Error("entry should be fresh after the repeated fetch")
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
}

func TestQuery_FetchAfterInvalidateDoesNotJoinOlderCall(t *testing.T) {
	qc := NewClient(time.Hour)
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	q := NewQuery(qc, "items", func(ctx context.Context) result.Result[int] {
		n := calls.Add(1)
		if n == 1 {
			close(started)
			<-release
		}
		return result.Ok(int(n))
	})

	first := make(chan int, 1)
	go func() {
		v, _ := q.Refetch(context.Background()).Unwrap()
		first <- v
	}()
	<-started
	qc.Invalidate("items")

	v, err := q.Fetch(context.Background()).Unwrap()
	if err != nil || v != 2 {
		t.Errorf("Fetch after invalidate = %d, %v; want a new call", v, err)
	}
	close(release)
	<-first
}
