// Package memo provides a single-flight memoizing cache.
//
// At most one computation runs per key at a time. Callers that arrive while a
// computation is pending wait for the same result. Completed values stay cached
// until they are forgotten or evicted, failures are never cached.
package memo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jellydator/ttlcache/v3"
)

// DefaultCapacity is the capacity used when no option is given.
const DefaultCapacity = 128

// ErrPanicked is returned to every waiter when the computation panics.
var ErrPanicked = errors.New("memoized computation panicked")

// Func computes the value for a key. The context passed to it is detached from
// the cancellation of the caller that started it.
type Func[V any] func(ctx context.Context) (V, error)

// call is one in-flight or finished computation.
type call[V any] struct {
	done chan struct{}
	val  V
	err  error
}

func (c *call[V]) failed() bool {
	select {
	case <-c.done:
		return c.err != nil
	default:
		return false
	}
}

func (c *call[V]) wait(ctx context.Context) (V, error) {
	// Prefer a finished result over a concurrently cancelled context
	select {
	case <-c.done:
		return c.val, c.err
	default:
	}

	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Cache deduplicates concurrent computations per key and keeps their results.
type Cache[V any] struct {
	items *ttlcache.Cache[string, *call[V]]
	mu    sync.Mutex // guards check-and-insert on items
}

type options struct {
	capacity uint64
}

// Option configures a Cache.
type Option func(*options)

// WithCapacity bounds the cache to n entries with least-recently-used eviction.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = uint64(n)
		}
	}
}

// Unbounded removes the capacity bound.
func Unbounded() Option {
	return func(o *options) {
		o.capacity = 0
	}
}

// New creates a Cache. Without options it holds DefaultCapacity entries.
func New[V any](opts ...Option) *Cache[V] {
	o := options{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}

	cacheOpts := []ttlcache.Option[string, *call[V]]{
		ttlcache.WithTTL[string, *call[V]](ttlcache.NoTTL),
	}
	if o.capacity > 0 {
		cacheOpts = append(cacheOpts, ttlcache.WithCapacity[string, *call[V]](o.capacity))
	}

	return &Cache[V]{
		items: ttlcache.New(cacheOpts...),
	}
}

// Get returns the value for key, running fn only when no pending or completed
// entry exists. Cancelling ctx only abandons this caller's wait.
func (c *Cache[V]) Get(ctx context.Context, key string, fn Func[V]) (V, error) {
	c.mu.Lock()

	var cl *call[V]
	if item := c.items.Get(key); item != nil && !item.Value().failed() {
		cl = item.Value()
	} else {
		cl = &call[V]{done: make(chan struct{})}
		c.items.Set(key, cl, ttlcache.DefaultTTL)

		go c.run(context.WithoutCancel(ctx), key, cl, fn)
	}

	c.mu.Unlock()

	return cl.wait(ctx)
}

// run executes fn and publishes its outcome to every waiter of cl.
func (c *Cache[V]) run(ctx context.Context, key string, cl *call[V], fn Func[V]) {
	defer close(cl.done)

	func() {
		defer func() {
			if r := recover(); r != nil {
				cl.err = fmt.Errorf("%w: %v", ErrPanicked, r)
			}
		}()

		cl.val, cl.err = fn(ctx)
	}()

	if cl.err == nil {
		return
	}

	// Drop the failed entry so the next caller retries, unless it was already
	// forgotten or replaced
	c.mu.Lock()
	if item := c.items.Get(key); item != nil && item.Value() == cl {
		c.items.Delete(key)
	}
	c.mu.Unlock()
}

// Forget removes the entry for key. A pending computation keeps running and
// its current waiters still receive the result, later callers recompute.
func (c *Cache[V]) Forget(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.items.Has(key) {
		return false
	}

	c.items.Delete(key)

	return true
}

// Len returns the number of pending and completed entries.
func (c *Cache[V]) Len() int {
	return c.items.Len()
}
