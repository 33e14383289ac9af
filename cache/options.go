package cache

import (
	"context"

	"go.uber.org/zap"
)

// Tag is the small integer stored next to every value. The engine returns it
// unchanged and never looks at it.
type Tag uint8

// Result reports what Set did.
type Result int

const (
	// Inserted means the key was new.
	Inserted Result = 1
	// Replaced means an existing value was overwritten.
	Replaced Result = 2
)

// Entry is a value read back from the cache. Value is owned by the caller.
type Entry struct {
	Value []byte
	Tag   Tag
}

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictCount: removed to bring the entry count back under MaxItems.
	EvictCount EvictReason = iota
	// EvictBytes: removed to bring the byte total back under MaxBytes.
	EvictBytes
)

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int, bytes int64)
	// Segments reports the index segment count after it changes.
	Segments(n int)
}

// Loader fetches a value on cache miss. Used by GetOrLoad.
type Loader func(ctx context.Context, key []byte) (Entry, error)

// Options configures the cache behavior. Zero values are safe;
// sane defaults are applied in New():
//   - SegmentCapacity <= 0 => 4096 slots (rounded up to a power of two)
//   - nil Digest   => xxHash64
//   - nil Metrics  => NoopMetrics
//   - nil Logger   => zap.NewNop()
type Options struct {
	// MaxItems is the entry count limit; 0 disables it.
	MaxItems int

	// MaxBytes is the payload byte limit (key + value lengths); 0 disables it.
	MaxBytes int64

	// CountOverhead adds index and record memory to the byte total compared
	// against MaxBytes.
	CountOverhead bool

	// SegmentCapacity is the slot count of each index segment.
	SegmentCapacity int

	// Digest hashes key bytes. Only distribution matters; keys are always
	// compared in full.
	Digest func(key []byte) uint64

	// Loader is used by GetOrLoad on Locked and Sharded.
	Loader Loader

	// Observability
	// OnEvict is called after an entry is evicted (not on Remove or Clear).
	// key and value are copies. Under Locked or Sharded it runs while the
	// shard lock is held: keep callbacks lightweight and never call back
	// into the same cache from them, or the call deadlocks.
	OnEvict func(key, value []byte, tag Tag)
	Metrics Metrics
	Logger  *zap.Logger
}
