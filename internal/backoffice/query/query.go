package query

import (
	"context"
	"sync/atomic"

	"github.com/MatheusAFD/mono-repo-auth/pkg/result"
)

// Query is a cached read of one key.
type Query[T any] struct {
	client *Client
	key    string
	fn     func(context.Context) result.Result[T]
	// RefetchOnFocus makes OnFocus refetch.
	RefetchOnFocus bool
}

// NewQuery returns a query for key backed by fn.
func NewQuery[T any](client *Client, key string, fn func(context.Context) result.Result[T]) *Query[T] {
	return &Query[T]{client: client, key: key, fn: fn}
}

// Key is the cache key of q.
func (q *Query[T]) Key() string { return q.key }

// Fetch returns the cached value when fresh, otherwise fetches it.
func (q *Query[T]) Fetch(ctx context.Context) result.Result[T] {
	return q.run(ctx, false)
}

// Refetch fetches regardless of freshness.
func (q *Query[T]) Refetch(ctx context.Context) result.Result[T] {
	return q.run(ctx, true)
}

// OnFocus refetches when RefetchOnFocus is set and reports whether it did.
func (q *Query[T]) OnFocus(ctx context.Context) (result.Result[T], bool) {
	if !q.RefetchOnFocus {
		return result.Result[T]{}, false
	}
	return q.Refetch(ctx), true
}

// Data returns the last successfully fetched value.
func (q *Query[T]) Data() (T, bool) {
	v, ok, _ := q.client.Peek(q.key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func (q *Query[T]) run(ctx context.Context, force bool) result.Result[T] {
	v, err := q.client.fetch(ctx, q.key, force, func(ctx context.Context) (any, error) {
		return q.fn(ctx).Unwrap()
	})
	if err != nil {
		return result.Err[T](err)
	}
	t, _ := v.(T)
	return result.Ok(t)
}

// Mutation runs a write and invalidates keys when it succeeds. It never updates cached data itself.
type Mutation[In, Out any] struct {
	client     *Client
	fn         func(context.Context, In) result.Result[Out]
	invalidate []string
	pending    atomic.Int32
}

// NewMutation returns a mutation backed by fn that invalidates the given keys on success.
func NewMutation[In, Out any](client *Client, fn func(context.Context, In) result.Result[Out], invalidate ...string) *Mutation[In, Out] {
	return &Mutation[In, Out]{client: client, fn: fn, invalidate: invalidate}
}

// Mutate runs the mutation. On failure the cache is left untouched.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, in In) result.Result[Out] {
	m.pending.Add(1)
	defer m.pending.Add(-1)
	res := m.fn(ctx, in)
	if res.IsOk() {
		for _, key := range m.invalidate {
			m.client.Invalidate(key)
		}
	}
	return res
}

// Pending reports whether a Mutate call is in flight.
func (m *Mutation[In, Out]) Pending() bool {
	return m.pending.Load() > 0
}
