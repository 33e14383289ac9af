// Package cache provides an embeddable, byte-oriented LRU cache engine with
// optional item and byte bounds, exact size accounting and deterministic
// recency-ordered iteration.
//
// Design
//
//   - Index: key digests address fixed-capacity, open-addressed segments.
//     When the active segment crosses its load limit, a segment drained by
//     evictions is recycled or a new one is appended; existing segments are
//     never rehashed. Lookups scan from the last appended segment, so
//     recently written keys stay O(1) after growth.
//
//   - Records: every live key owns one fixed-size record in a pool,
//     addressed by integer locators. Records carry the digest, lengths,
//     tag, the arena span of the key+value bytes and the LRU links.
//
//   - Arena: key and value bytes live back to back in one byte buffer.
//     Freed spans go to a first-fit free list and are merged with their
//     neighbours, so DataSize is exact after every mutation.
//
//   - Eviction: after each Set the least recently used entries are evicted
//     while MaxItems or MaxBytes is exceeded. The entry just written is at
//     the head and is itself evicted only when it cannot fit alone.
//
//   - Concurrency: *Cache is single-threaded. Locked wraps one engine in a
//     mutex and adds GetOrLoad with singleflight; Sharded spreads keys over
//     several Locked engines.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size/Segments
//     signals. By default NoopMetrics is used; metrics/prom exports them to
//     Prometheus.
//
// Basic usage
//
//	c := cache.New(cache.Options{MaxItems: 10_000})
//	if _, err := c.Set([]byte("a"), []byte("1"), 0); err != nil {
//	    return err
//	}
//	if e, ok, _ := c.Get([]byte("a")); ok {
//	    _ = e.Value // caller-owned copy
//	}
//	for k, ok := c.FirstKey(); ok; k, ok = c.NextKey(k) {
//	    // MRU → LRU
//	}
//
// Concurrent use with GetOrLoad
//
//	c := cache.NewSharded(0, cache.Options{
//	    MaxBytes: 64 << 20,
//	    Loader: func(ctx context.Context, key []byte) (cache.Entry, error) {
//	        // e.g. fetch from DB
//	        return cache.Entry{Value: []byte("v")}, nil
//	    },
//	})
//	e, err := c.GetOrLoad(ctx, []byte("key"))
//
// Typed values are handled by package value, which maps Go values to the
// (bytes, Tag) pairs stored here.
package cache
