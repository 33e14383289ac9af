package cache

import (
	"context"

	"github.com/IvanBrykalov/segcache/internal/digest"
	"github.com/IvanBrykalov/segcache/internal/util"
)

// Sharded spreads keys over independent Locked engines to cut lock
// contention. Recency order and bounds are per shard, so there is no
// cross-shard key iteration.
type Sharded struct {
	shards []*Locked
	digest digest.Func
	totals *shardTotals
}

// NewSharded constructs a sharded cache.
// Defaults:
//   - shards <= 0 -> util.ReasonableShardCount()
//   - shards is rounded up to the next power of two
//
// MaxItems and MaxBytes are split evenly (ceil) across shards. Metrics see
// cache-wide totals in Size and Segments.
func NewSharded(shards int, opt Options) *Sharded {
	if shards <= 0 {
		shards = util.ReasonableShardCount()
	}
	shards = int(util.NextPow2(uint64(shards)))

	if opt.Digest == nil {
		opt.Digest = digest.Sum
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}

	s := &Sharded{
		shards: make([]*Locked, shards),
		digest: opt.Digest,
		totals: &shardTotals{},
	}

	per := opt
	if opt.MaxItems > 0 {
		per.MaxItems = (opt.MaxItems + shards - 1) / shards // split evenly (ceil)
	}
	if opt.MaxBytes > 0 {
		per.MaxBytes = (opt.MaxBytes + int64(shards) - 1) / int64(shards)
	}
	for i := range s.shards {
		per.Metrics = &shardMetrics{Metrics: opt.Metrics, totals: s.totals, segments: 1}
		s.shards[i] = NewLocked(per)
	}
	s.totals.segments.Add(int64(shards))
	return s
}

// Shards returns the shard count.
func (s *Sharded) Shards() int { return len(s.shards) }

// Shard returns the engine owning key, for per-shard iteration via Locked.Do.
func (s *Sharded) Shard(key []byte) *Locked { return s.shards[s.index(key)] }

// index picks a shard from the upper digest bits; segments probe from the
// lower ones.
func (s *Sharded) index(key []byte) int {
	return util.ShardIndex(s.digest(key)>>32, len(s.shards))
}

func (s *Sharded) Set(key, value []byte, tag Tag) (Result, error) {
	if len(key) == 0 {
		return 0, ErrInvalidKey
	}
	return s.Shard(key).Set(key, value, tag)
}

func (s *Sharded) Get(key []byte) (Entry, bool, error) {
	if len(key) == 0 {
		return Entry{}, false, ErrInvalidKey
	}
	return s.Shard(key).Get(key)
}

func (s *Sharded) Peek(key []byte) (Entry, bool, error) {
	if len(key) == 0 {
		return Entry{}, false, ErrInvalidKey
	}
	return s.Shard(key).Peek(key)
}

func (s *Sharded) Has(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, ErrInvalidKey
	}
	return s.Shard(key).Has(key)
}

func (s *Sharded) Remove(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, ErrInvalidKey
	}
	return s.Shard(key).Remove(key)
}

// GetOrLoad loads through the owning shard. See Locked.GetOrLoad.
func (s *Sharded) GetOrLoad(ctx context.Context, key []byte) (Entry, error) {
	if len(key) == 0 {
		return Entry{}, ErrInvalidKey
	}
	return s.Shard(key).GetOrLoad(ctx, key)
}

// Clear drops every entry of every shard. Shards are cleared one at a time,
// so concurrent writers may leave entries behind.
func (s *Sharded) Clear() {
	for _, sh := range s.shards {
		sh.Clear()
	}
}

// Len returns the total number of resident entries across all shards.
func (s *Sharded) Len() int {
	total := 0
	for _, sh := range s.shards {
		total += sh.Len()
	}
	return total
}

// Stats sums the counters of all shards. NumIndexes is the total segment count.
func (s *Sharded) Stats() Stats {
	var st Stats
	for _, sh := range s.shards {
		x := sh.Stats()
		st.IndexSize += x.IndexSize
		st.MetaSize += x.MetaSize
		st.DataSize += x.DataSize
		st.NumKeys += x.NumKeys
		st.NumIndexes += x.NumIndexes
		st.NumEvictions += x.NumEvictions
	}
	return st
}

// Counters returns the Get hit and miss totals across shards.
func (s *Sharded) Counters() (hits, misses uint64) {
	for _, sh := range s.shards {
		h, m := sh.Counters()
		hits += h
		misses += m
	}
	return hits, misses
}

// shardTotals holds cache-wide gauges fed by every shard.
type shardTotals struct {
	entries  util.PaddedAtomicInt64
	bytes    util.PaddedAtomicInt64
	segments util.PaddedAtomicInt64
}

// shardMetrics turns one shard's gauge updates into deltas on the shared
// totals so the wrapped Metrics always sees cache-wide figures.
// Its fields are only touched under the owning shard's lock.
type shardMetrics struct {
	Metrics
	totals *shardTotals

	entries  int64
	bytes    int64
	segments int64
}

func (m *shardMetrics) Size(entries int, bytes int64) {
	e := m.totals.entries.Add(int64(entries) - m.entries)
	b := m.totals.bytes.Add(bytes - m.bytes)
	m.entries, m.bytes = int64(entries), bytes
	m.Metrics.Size(int(e), b)
}

func (m *shardMetrics) Segments(n int) {
	t := m.totals.segments.Add(int64(n) - m.segments)
	m.segments = int64(n)
	m.Metrics.Segments(int(t))
}
