package cache

import (
	"bytes"
	"fmt"

	"go.uber.org/zap"

	"github.com/IvanBrykalov/segcache/internal/arena"
	"github.com/IvanBrykalov/segcache/internal/digest"
	"github.com/IvanBrykalov/segcache/internal/index"
	"github.com/IvanBrykalov/segcache/internal/lru"
	"github.com/IvanBrykalov/segcache/internal/meta"
)

// Cache is the single-threaded storage engine: a segmented digest index,
// a record pool, a byte arena and an intrusive LRU list.
// It is NOT safe for concurrent use; wrap it in Locked or Sharded for that.
type Cache struct {
	opt Options
	log *zap.Logger

	dir  *index.Directory
	recs *meta.Store
	data *arena.Arena
	list *lru.List

	dataSize  int64
	evictions uint64
}

// New constructs an engine with the provided Options.
// Defaults:
//   - nil Metrics  -> NoopMetrics
//   - nil Digest   -> xxHash64
//   - nil Logger   -> no-op logger
func New(opt Options) *Cache {
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Digest == nil {
		opt.Digest = digest.Sum
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	if opt.MaxItems < 0 {
		opt.MaxItems = 0
	}
	if opt.MaxBytes < 0 {
		opt.MaxBytes = 0
	}
	opt.SegmentCapacity = index.NormalizeCapacity(opt.SegmentCapacity)

	c := &Cache{
		opt:  opt,
		log:  opt.Logger,
		recs: meta.NewStore(0),
		data: arena.New(0),
	}
	c.list = lru.New(c.recs)
	c.dir = index.NewDirectory(opt.SegmentCapacity, keyView{c})
	c.dir.OnGrow = func(n int) {
		c.log.Debug("index segment appended",
			zap.Int("segments", n),
			zap.Int("keys", c.recs.Len()),
		)
		c.opt.Metrics.Segments(n)
	}
	return c
}

// keyView lets index segments compare full keys through record locators.
type keyView struct{ c *Cache }

func (k keyView) Key(loc meta.Locator) []byte { return k.c.keyOf(k.c.recs.At(loc)) }

// ---- Store implementation ----

// Set inserts or replaces key→value with tag. The entry becomes the most
// recently used, then bounds are enforced.
func (c *Cache) Set(key, value []byte, tag Tag) (Result, error) {
	if len(key) == 0 {
		return 0, ErrInvalidKey
	}
	dg := c.opt.Digest(key)

	if loc, _, ok := c.dir.Lookup(dg, key); ok {
		if err := c.replace(loc, key, value, tag); err != nil {
			return 0, err
		}
		c.enforceLimits()
		return Replaced, nil
	}

	// The arena is the only store that can fail, so it goes first.
	span, err := c.data.Write(key, value)
	if err != nil {
		return 0, fmt.Errorf("cache: store %d-byte entry: %w: %w", len(key)+len(value), ErrAllocation, err)
	}

	loc := c.recs.Allocate()
	r := c.recs.At(loc)
	r.Digest = dg
	r.Payload = span
	r.KeyLen = uint32(len(key))
	r.ValLen = uint32(len(value))
	r.Tag = uint8(tag)

	seg, _ := c.dir.Insert(dg, key, loc)
	r.Segment = int32(seg)
	c.list.PushFront(loc)
	c.dataSize += r.Size()

	c.enforceLimits()
	return Inserted, nil
}

// replace overwrites the value of a live record and promotes it.
func (c *Cache) replace(loc meta.Locator, key, value []byte, tag Tag) error {
	r := c.recs.At(loc)
	old := r.Size()
	need := len(key) + len(value)

	if int64(need) <= old {
		// fits: rewrite the value in place and free the tail remainder
		copy(c.data.Bytes(r.Payload)[len(key):], value)
		r.Payload = c.data.Shrink(r.Payload, need)
	} else {
		span, err := c.data.Write(key, value)
		if err != nil {
			return fmt.Errorf("cache: replace with %d-byte entry: %w: %w", need, ErrAllocation, err)
		}
		c.data.Free(r.Payload)
		r.Payload = span
	}
	r.ValLen = uint32(len(value))
	r.Tag = uint8(tag)
	c.dataSize += r.Size() - old

	c.list.MoveToFront(loc)
	return nil
}

// Get returns the entry for key and promotes it to most recently used.
func (c *Cache) Get(key []byte) (Entry, bool, error) {
	loc, ok, err := c.find(key)
	if err != nil {
		return Entry{}, false, err
	}
	if !ok {
		c.opt.Metrics.Miss()
		return Entry{}, false, nil
	}
	c.list.MoveToFront(loc)
	c.opt.Metrics.Hit()
	return c.entry(loc), true, nil
}

// Peek returns the entry for key without changing recency order.
func (c *Cache) Peek(key []byte) (Entry, bool, error) {
	loc, ok, err := c.find(key)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	return c.entry(loc), true, nil
}

// Has reports whether key is present without changing recency order.
func (c *Cache) Has(key []byte) (bool, error) {
	_, ok, err := c.find(key)
	return ok, err
}

// Remove deletes key and reports whether it was present.
// Explicit removal is not counted as an eviction.
func (c *Cache) Remove(key []byte) (bool, error) {
	loc, ok, err := c.find(key)
	if err != nil || !ok {
		return false, err
	}
	c.drop(loc)
	c.opt.Metrics.Size(c.recs.Len(), c.dataSize)
	return true, nil
}

// Len returns the number of resident entries.
func (c *Cache) Len() int { return c.recs.Len() }

// Clear drops every entry and collapses the index to one empty segment.
// NumEvictions is preserved.
func (c *Cache) Clear() {
	n := c.recs.Len()
	c.dir.Reset()
	c.list.Reset()
	c.recs.Reset(true)
	c.data.Reset(true)
	c.dataSize = 0

	c.log.Debug("cache cleared", zap.Int("keys", n))
	c.opt.Metrics.Size(0, 0)
	c.opt.Metrics.Segments(1)
}

// ClearSegment drops only the entries indexed by segment i. Out of range
// indexes are ignored. Once every segment is empty the index collapses to a
// single segment, matching the state left by Clear.
func (c *Cache) ClearSegment(i int) {
	before, segs := c.recs.Len(), c.dir.Len()
	ok := c.dir.ClearSegment(i, func(loc meta.Locator) {
		r := c.recs.At(loc)
		c.list.Remove(loc)
		c.dataSize -= r.Size()
		c.data.Free(r.Payload)
		c.recs.Release(loc)
	})
	if !ok {
		return
	}
	if c.recs.Len() == 0 {
		c.recs.Reset(false)
		c.data.Reset(false)
	}

	c.log.Debug("index segment cleared",
		zap.Int("segment", i),
		zap.Int("keys_dropped", before-c.recs.Len()),
		zap.Int("segments", c.dir.Len()),
	)
	c.opt.Metrics.Size(c.recs.Len(), c.dataSize)
	if c.dir.Len() != segs {
		c.opt.Metrics.Segments(c.dir.Len())
	}
}

// Stats returns the current size counters.
func (c *Cache) Stats() Stats {
	return Stats{
		IndexSize:    c.dir.Size(),
		MetaSize:     int64(c.recs.Len()) * meta.RecordSize,
		DataSize:     c.dataSize,
		NumKeys:      c.recs.Len(),
		NumIndexes:   c.dir.Len(),
		NumEvictions: c.evictions,
	}
}

// ---- iteration over recency order ----

// FirstKey returns the most recently used key.
func (c *Cache) FirstKey() ([]byte, bool) { return c.keyAt(c.list.Head()) }

// LastKey returns the least recently used key.
func (c *Cache) LastKey() ([]byte, bool) { return c.keyAt(c.list.Tail()) }

// NextKey returns the key after key in MRU→LRU order. An empty key means
// "from the start" and yields FirstKey. A missing key, or the last one,
// reports false.
func (c *Cache) NextKey(key []byte) ([]byte, bool) {
	if len(key) == 0 {
		return c.FirstKey()
	}
	loc, ok := c.lookup(key)
	if !ok {
		return nil, false
	}
	return c.keyAt(c.list.Next(loc))
}

// PrevKey is NextKey walking LRU→MRU. An empty key yields LastKey.
func (c *Cache) PrevKey(key []byte) ([]byte, bool) {
	if len(key) == 0 {
		return c.LastKey()
	}
	loc, ok := c.lookup(key)
	if !ok {
		return nil, false
	}
	return c.keyAt(c.list.Prev(loc))
}

// -------------------- internals --------------------

func (c *Cache) find(key []byte) (meta.Locator, bool, error) {
	if len(key) == 0 {
		return meta.Nil, false, ErrInvalidKey
	}
	loc, ok := c.lookup(key)
	return loc, ok, nil
}

func (c *Cache) lookup(key []byte) (meta.Locator, bool) {
	loc, _, ok := c.dir.Lookup(c.opt.Digest(key), key)
	return loc, ok
}

func (c *Cache) keyOf(r *meta.Record) []byte {
	return c.data.Bytes(r.Payload)[:r.KeyLen]
}

func (c *Cache) valueOf(r *meta.Record) []byte {
	return c.data.Bytes(r.Payload)[r.KeyLen:]
}

func (c *Cache) keyAt(loc meta.Locator) ([]byte, bool) {
	if loc == meta.Nil {
		return nil, false
	}
	return bytes.Clone(c.keyOf(c.recs.At(loc))), true
}

func (c *Cache) entry(loc meta.Locator) Entry {
	r := c.recs.At(loc)
	v := c.valueOf(r)
	return Entry{Value: append(make([]byte, 0, len(v)), v...), Tag: Tag(r.Tag)}
}

// drop unlinks a live record from every structure and returns its memory.
func (c *Cache) drop(loc meta.Locator) {
	r := c.recs.At(loc)
	c.dir.RemoveFrom(int(r.Segment), r.Digest, c.keyOf(r))
	c.list.Remove(loc)
	c.dataSize -= r.Size()
	c.data.Free(r.Payload)
	c.recs.Release(loc)
}

// byteTotal is the figure compared against MaxBytes.
func (c *Cache) byteTotal() int64 {
	if !c.opt.CountOverhead {
		return c.dataSize
	}
	return c.dataSize + c.dir.Size() + int64(c.recs.Len())*meta.RecordSize
}

// overLimit reports which bound, if any, is currently exceeded.
func (c *Cache) overLimit() (EvictReason, bool) {
	if c.opt.MaxItems > 0 && c.recs.Len() > c.opt.MaxItems {
		return EvictCount, true
	}
	if c.opt.MaxBytes > 0 && c.byteTotal() > c.opt.MaxBytes {
		return EvictBytes, true
	}
	return 0, false
}

// enforceLimits evicts LRU entries until both bounds are satisfied. The
// entry just written sits at the head, so it goes last and only when it
// cannot fit on its own.
func (c *Cache) enforceLimits() {
	for {
		reason, over := c.overLimit()
		if !over {
			break
		}
		tail := c.list.Tail()
		if tail == meta.Nil {
			break
		}
		c.evict(tail, reason)
	}
	c.opt.Metrics.Size(c.recs.Len(), c.dataSize)
}

// evict removes the record, updates counters and calls OnEvict.
func (c *Cache) evict(loc meta.Locator, reason EvictReason) {
	r := c.recs.At(loc)
	if c.opt.MaxBytes > 0 && r.Size() > c.opt.MaxBytes {
		c.log.Debug("entry larger than MaxBytes evicted",
			zap.Int64("size", r.Size()),
			zap.Int64("max_bytes", c.opt.MaxBytes),
		)
	}

	var key, val []byte
	tag := Tag(r.Tag)
	if c.opt.OnEvict != nil {
		key, val = bytes.Clone(c.keyOf(r)), bytes.Clone(c.valueOf(r))
	}

	c.drop(loc)
	c.evictions++
	c.opt.Metrics.Evict(reason)
	if cb := c.opt.OnEvict; cb != nil {
		cb(key, val, tag)
	}
}
