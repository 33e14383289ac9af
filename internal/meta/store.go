// Package meta holds the fixed-size per-key records of the engine in a
// growable pool. Records are addressed by Locator (their pool index), never
// by pointer, so a freed slot can be handed out again safely.
package meta

import (
	"unsafe"

	"github.com/IvanBrykalov/segcache/internal/arena"
)

// Locator identifies a record in the pool.
type Locator uint32

// Nil is the "no record" locator used by list links.
const Nil Locator = ^Locator(0)

// Record is one live key. Payload holds the key bytes immediately followed
// by the value bytes.
type Record struct {
	Digest  uint64
	Payload arena.Span
	KeyLen  uint32
	ValLen  uint32

	// LRU chain: Prev points toward the head (MRU), Next toward the tail (LRU).
	Prev Locator
	Next Locator

	// Segment is the index segment owning this record's slot.
	Segment int32
	Tag     uint8
	live    bool
}

// Size returns the payload byte count accounted to dataSize.
func (r *Record) Size() int64 { return int64(r.KeyLen) + int64(r.ValLen) }

// Live reports whether the record is allocated.
func (r *Record) Live() bool { return r.live }

// RecordSize is the fixed in-memory cost of one record.
const RecordSize = int64(unsafe.Sizeof(Record{}))

// Store is the record pool. It is not safe for concurrent use.
type Store struct {
	recs []Record
	free []Locator
	live int
}

// NewStore returns a pool with room for sizeHint records.
func NewStore(sizeHint int) *Store {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Store{recs: make([]Record, 0, sizeHint)}
}

// Allocate returns a zeroed live record, reusing a freed one when possible.
func (s *Store) Allocate() Locator {
	var l Locator
	if n := len(s.free); n > 0 {
		l = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.recs = append(s.recs, Record{})
		l = Locator(len(s.recs) - 1)
	}
	s.recs[l] = Record{Prev: Nil, Next: Nil, live: true}
	s.live++
	return l
}

// Release returns l to the free list. Releasing a dead record is a no-op.
func (s *Store) Release(l Locator) {
	r := &s.recs[l]
	if !r.live {
		return
	}
	*r = Record{Prev: Nil, Next: Nil}
	s.free = append(s.free, l)
	s.live--
}

// At returns the record for l. The pointer is invalidated by Allocate.
func (s *Store) At(l Locator) *Record { return &s.recs[l] }

// Len returns the number of live records.
func (s *Store) Len() int { return s.live }

// Cap returns the pool size, live and free.
func (s *Store) Cap() int { return len(s.recs) }

// Reset releases every record. With release set the pool memory is dropped.
func (s *Store) Reset(release bool) {
	if release {
		s.recs = nil
	} else {
		s.recs = s.recs[:0]
	}
	s.free = nil
	s.live = 0
}
