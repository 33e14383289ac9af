// Package singleflight coalesces concurrent loads of the same cache key.
package singleflight

import (
	"context"
	"sync"
)

// Group coalesces concurrent calls for the same key K so that fn runs at
// most once per key at a time. Callers arriving while a call is in flight
// wait for the shared result instead of starting their own.
//
// Concurrency notes:
//   - The first caller for a given key becomes the leader and runs fn.
//   - Followers wait on c.done. Publishing (val, err) happens-before
//     close(c.done), so reads after <-done observe the final values.
//   - Cancelling ctx in a follower unblocks only that follower; it does
//     NOT cancel the leader's fn. If the work itself must stop, pass ctx
//     into fn and handle it there.
//   - The in-flight marker is removed after done is closed, so a caller
//     arriving in between still joins the finished call and gets its result.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*call[V]
}

type call[V any] struct {
	done chan struct{} // closed when val/err are published
	val  V
	err  error
}

// Do runs fn once for key and hands the result to every concurrent caller.
// If ctx is cancelled in a follower, that follower returns ctx.Err() while
// the leader continues to run fn.
//
// Important:
//   - ctx cancellation does not stop the leader's fn. Thread ctx into fn
//     when cancellation of the underlying work is required.
//   - Every caller receives the same V. When V holds a slice, callers share
//     its backing array and must not modify it.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	// Fast path: an in-flight call exists, wait for it (respecting ctx).
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*call[V])
	}
	if c, ok := g.m[key]; ok {
		g.mu.Unlock()

		select {
		case <-c.done:
			return c.val, c.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	// We are the leader for this key.
	c := &call[V]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	// Execute fn outside the lock, then publish and wake followers.
	c.val, c.err = fn()
	close(c.done)

	// Remove the in-flight marker.
	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()

	return c.val, c.err
}

// InFlight returns the number of keys currently being loaded.
func (g *Group[K, V]) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.m)
}
