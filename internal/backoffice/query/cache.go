// Package query caches keyed reads for the backoffice client and runs mutations that invalidate them.
// Concurrent fetches of one key share a single call.
package query

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value     any
	err       error
	hasValue  bool
	fetchedAt time.Time
	stale     bool
	// gen is bumped by Invalidate; a fetch only counts as fresh if gen did not move while it ran.
	gen uint64
}

// maxFetchRounds bounds how often one fetch repeats fn after being overtaken by an invalidation.
const maxFetchRounds = 2

// Client is the shared cache. The zero value is not usable; call NewClient.
type Client struct {
	mu        sync.Mutex
	entries   map[string]*entry
	group     singleflight.Group
	staleTime time.Duration
	now       func() time.Time
}

// NewClient returns a cache whose entries become stale after staleTime. Zero means
// entries are stale as soon as they are stored, so every Fetch refetches.
func NewClient(staleTime time.Duration) *Client {
	return &Client{
		entries:   make(map[string]*entry),
		staleTime: staleTime,
		now:       time.Now,
	}
}

// fetch returns the cached value for key when fresh, otherwise calls fn (once for all concurrent
// callers). A call that is invalidated while fn runs repeats fn so it does not hand out data read
// before the invalidation. On failure the previous value is kept and the error recorded.
func (c *Client) fetch(ctx context.Context, key string, force bool, fn func(context.Context) (any, error)) (any, error) {
	if !force {
		c.mu.Lock()
		e, ok := c.entries[key]
		if ok && e.hasValue && e.err == nil && !c.isStale(e) {
			v := e.value
			c.mu.Unlock()
			return v, nil
		}
		c.mu.Unlock()
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		var (
			v   any
			err error
		)
		for round := 0; round < maxFetchRounds; round++ {
			gen := c.generation(key)
			v, err = fn(ctx)
			if c.record(key, gen, v, err) {
				break
			}
		}
		return v, err
	})
	return v, err
}

func (c *Client) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.gen
	}
	return 0
}

// record stores the outcome of a fetch started at gen and reports whether it is current.
// Results overtaken by an invalidation are dropped; the entry stays stale.
func (c *Client) record(key string, gen uint64, v any, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	if e.gen != gen {
		return false
	}
	e.err = err
	if err == nil {
		e.value = v
		e.hasValue = true
		e.fetchedAt = c.now()
		e.stale = false
	}
	return true
}

func (c *Client) isStale(e *entry) bool {
	return e.stale || c.now().Sub(e.fetchedAt) >= c.staleTime
}

// Invalidate marks key stale so the next Fetch refetches. The cached value stays readable.
// A fetch already in flight is not joined by later callers and cannot mark the key fresh again.
func (c *Client) Invalidate(key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	e.gen++
	e.stale = true
	c.mu.Unlock()
	c.group.Forget(key)
}

// IsStale reports whether key is missing or stale.
func (c *Client) IsStale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return !ok || !e.hasValue || c.isStale(e)
}

// Peek returns the last successfully fetched value for key and the last fetch error.
func (c *Client) Peek(key string) (value any, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.entries[key]
	if !found {
		return nil, false, nil
	}
	return e.value, e.hasValue, e.err
}
