package cache

import (
	"context"
	"sync"

	"github.com/IvanBrykalov/segcache/internal/singleflight"
	"github.com/IvanBrykalov/segcache/internal/util"
)

// Locked serializes every call to one engine behind a mutex.
// All methods are safe for concurrent use by multiple goroutines.
type Locked struct {
	// ---- guarded by mu ----
	mu sync.Mutex
	c  *Cache

	loader Loader

	// singleflight group for coalescing concurrent loads in GetOrLoad.
	sf singleflight.Group[string, Entry]

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicUint64
	misses util.PaddedAtomicUint64
}

// NewLocked constructs a mutex-guarded engine. Options are handled as in New.
func NewLocked(opt Options) *Locked {
	return &Locked{c: New(opt), loader: opt.Loader}
}

// Set inserts or replaces key→value. See Cache.Set.
func (l *Locked) Set(key, value []byte, tag Tag) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.Set(key, value, tag)
}

// Get returns the entry for key and promotes it.
func (l *Locked) Get(key []byte) (Entry, bool, error) {
	l.mu.Lock()
	e, ok, err := l.c.Get(key)
	l.mu.Unlock()

	if err == nil {
		if ok {
			l.hits.Add(1)
		} else {
			l.misses.Add(1)
		}
	}
	return e, ok, err
}

// Peek returns the entry for key without promoting it.
func (l *Locked) Peek(key []byte) (Entry, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.Peek(key)
}

// Has reports whether key is present.
func (l *Locked) Has(key []byte) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.Has(key)
}

// Remove deletes key and reports whether it was present.
func (l *Locked) Remove(key []byte) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.Remove(key)
}

// Clear drops every entry.
func (l *Locked) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.c.Clear()
}

// ClearSegment drops the entries of index segment i.
func (l *Locked) ClearSegment(i int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.c.ClearSegment(i)
}

// Stats returns the engine's size counters.
func (l *Locked) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.Stats()
}

// Len returns the number of resident entries.
func (l *Locked) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.Len()
}

// NextKey returns the key after key in MRU→LRU order. See Cache.NextKey.
func (l *Locked) NextKey(key []byte) ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.NextKey(key)
}

// PrevKey returns the key before key in MRU→LRU order. See Cache.PrevKey.
func (l *Locked) PrevKey(key []byte) ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.PrevKey(key)
}

// Do runs fn with exclusive access to the engine, e.g. to walk keys without
// interleaved writers. fn must not retain c.
func (l *Locked) Do(fn func(c *Cache)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.c)
}

// Counters returns the Get hit and miss totals.
func (l *Locked) Counters() (hits, misses uint64) {
	return l.hits.Load(), l.misses.Load()
}

// GetOrLoad returns the entry for key; on miss it loads via Options.Loader,
// coalescing concurrent loads for the same key (singleflight).
// If no Loader is configured, returns ErrNoLoader. Callers that joined the
// same load share one Entry.Value slice and must not modify it.
func (l *Locked) GetOrLoad(ctx context.Context, key []byte) (Entry, error) {
	// fast path
	e, ok, err := l.Get(key)
	if err != nil || ok {
		return e, err
	}
	if l.loader == nil {
		return Entry{}, ErrNoLoader
	}

	// singleflight: exactly one real load for the key
	return l.sf.Do(ctx, string(key), func() (Entry, error) {
		// double-check after flight join
		if e, ok, _ := l.Peek(key); ok {
			return e, nil
		}
		e, err := l.loader(ctx, key)
		if err != nil {
			return Entry{}, err
		}
		if _, err := l.Set(key, e.Value, e.Tag); err != nil {
			return Entry{}, err
		}
		return e, nil
	})
}
