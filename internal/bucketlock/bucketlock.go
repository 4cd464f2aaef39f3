// Package bucketlock provides mutual exclusion scoped to a key.
//
// Acquirers of the same bucket are served in arrival order while unrelated
// buckets never contend. Bookkeeping for a bucket exists only while it is held.
package bucketlock

import (
	"container/list"
	"context"
	"sync"
)

// Release gives up a held bucket. Calling it more than once is a no-op.
type Release func()

// ticket is a queued acquirer. ready is closed once the bucket is handed over.
type ticket struct {
	ready chan struct{}
	elem  *list.Element
}

// bucket exists while held and keeps its waiters in FIFO order.
type bucket struct {
	waiters list.List
}

// Lock is a keyed mutex. The zero value is not usable, use New.
type Lock[K comparable] struct {
	buckets map[K]*bucket
	mu      sync.Mutex
}

// New creates an empty Lock.
func New[K comparable]() *Lock[K] {
	return &Lock[K]{
		buckets: make(map[K]*bucket),
	}
}

// Acquire takes the bucket for key, waiting behind earlier acquirers if it is
// held. If ctx ends first the caller leaves the queue and ctx.Err() is returned.
func (l *Lock[K]) Acquire(ctx context.Context, key K) (Release, error) {
	l.mu.Lock()

	b, held := l.buckets[key]
	if !held {
		l.buckets[key] = &bucket{}
		l.mu.Unlock()

		return l.releaser(key), nil
	}

	t := &ticket{ready: make(chan struct{})}
	t.elem = b.waiters.PushBack(t)
	l.mu.Unlock()

	select {
	case <-t.ready:
		return l.releaser(key), nil
	case <-ctx.Done():
	}

	l.mu.Lock()
	select {
	case <-t.ready:
		// Granted while giving up, so hand it to the next waiter
		l.mu.Unlock()
		l.release(key)
	default:
		b.waiters.Remove(t.elem)
		l.mu.Unlock()
	}

	return nil, ctx.Err()
}

// Do runs fn while holding the bucket for key. The bucket is released on every
// return path, panics included.
func (l *Lock[K]) Do(ctx context.Context, key K, fn func() error) error {
	release, err := l.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()

	return fn()
}

// Locked returns the number of held buckets.
func (l *Lock[K]) Locked() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.buckets)
}

// Waiting returns the number of queued acquirers across all buckets.
func (l *Lock[K]) Waiting() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, b := range l.buckets {
		n += b.waiters.Len()
	}

	return n
}

func (l *Lock[K]) releaser(key K) Release {
	var once sync.Once
	return func() {
		once.Do(func() { l.release(key) })
	}
}

// release passes the bucket to its oldest waiter or frees it.
func (l *Lock[K]) release(key K) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, held := l.buckets[key]
	if !held {
		return
	}

	front := b.waiters.Front()
	if front == nil {
		delete(l.buckets, key)
		return
	}

	b.waiters.Remove(front)
	close(front.Value.(*ticket).ready)
}
