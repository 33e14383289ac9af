// Package index implements the digest-addressed hash index: fixed-capacity
// open-addressed segments collected in an append-only directory.
package index

import (
	"bytes"
	"errors"
	"unsafe"

	"github.com/IvanBrykalov/segcache/internal/meta"
)

// ErrFull is returned by Segment.Insert when placing a new key would push
// the segment past its load limit.
var ErrFull = errors.New("index: segment full")

// Load limit as a fraction of capacity: limitNum/limitDen.
const (
	limitNum = 3
	limitDen = 4
)

// MinCapacity is the smallest segment capacity accepted.
const MinCapacity = 8

type slotState uint8

const (
	slotEmpty slotState = iota
	slotUsed
	slotDeleted
)

// Slot is one index entry: a digest and the locator of the owning record.
type Slot struct {
	Digest uint64
	Loc    meta.Locator
	state  slotState
}

// SlotSize is the fixed in-memory cost of one slot.
const SlotSize = int64(unsafe.Sizeof(Slot{}))

// Keys resolves a record locator to its key bytes for full-key comparison.
type Keys interface {
	Key(loc meta.Locator) []byte
}

// Segment is a fixed-capacity, linear-probing hash table of digest→locator.
// Deletions leave tombstones; a tombstone directly followed by an empty slot
// is turned back into an empty slot so probe chains stay short.
//
// Tombstones count against the load limit. A full segment is compacted in
// place only when that reclaims at least an eighth of its slots, so every
// O(capacity) rebuild is paid for by as many prior removals. Otherwise the
// insert fails with ErrFull and the directory moves on to another segment.
type Segment struct {
	slots       []Slot
	mask        uint64
	used        int
	deleted     int
	limit       int
	keys        Keys
	compactions int
}

// NewSegment allocates a segment. capacity must be a power of two and at
// least MinCapacity.
func NewSegment(capacity int, keys Keys) *Segment {
	if capacity < MinCapacity || capacity&(capacity-1) != 0 {
		panic("index: segment capacity must be a power of two >= 8")
	}
	return &Segment{
		slots: make([]Slot, capacity),
		mask:  uint64(capacity - 1),
		limit: capacity * limitNum / limitDen,
		keys:  keys,
	}
}

// Len returns the number of live entries.
func (s *Segment) Len() int { return s.used }

// Cap returns the slot count.
func (s *Segment) Cap() int { return len(s.slots) }

// Size returns the allocated byte cost of the slot array.
func (s *Segment) Size() int64 { return int64(len(s.slots)) * SlotSize }

func (s *Segment) match(sl *Slot, d uint64, key []byte) bool {
	return sl.state == slotUsed && sl.Digest == d && bytes.Equal(s.keys.Key(sl.Loc), key)
}

// find probes for key and returns its slot position.
func (s *Segment) find(d uint64, key []byte) (int, bool) {
	i := d & s.mask
	for n := 0; n < len(s.slots); n++ {
		sl := &s.slots[i]
		if sl.state == slotEmpty {
			return 0, false
		}
		if s.match(sl, d, key) {
			return int(i), true
		}
		i = (i + 1) & s.mask
	}
	return 0, false
}

// Insert places key→loc. If key is already present its locator is
// overwritten and replaced is true. A new key that would exceed the load
// limit yields ErrFull unless enough tombstones have piled up to make an
// in-place compaction worthwhile.
func (s *Segment) Insert(d uint64, key []byte, loc meta.Locator) (replaced bool, err error) {
	tomb := -1
	i := d & s.mask
	for n := 0; n < len(s.slots); n++ {
		sl := &s.slots[i]
		switch {
		case sl.state == slotEmpty:
			return false, s.place(int(i), tomb, d, loc)
		case sl.state == slotDeleted:
			if tomb < 0 {
				tomb = int(i)
			}
		case s.match(sl, d, key):
			sl.Loc = loc
			return true, nil
		}
		i = (i + 1) & s.mask
	}
	// Probing wrapped without meeting an empty slot: only tombstones remain free.
	if tomb >= 0 {
		return false, s.place(-1, tomb, d, loc)
	}
	return false, ErrFull
}

// place stores a new entry in the first tombstone seen, else the empty slot.
func (s *Segment) place(empty, tomb int, d uint64, loc meta.Locator) error {
	if tomb >= 0 {
		s.slots[tomb] = Slot{Digest: d, Loc: loc, state: slotUsed}
		s.deleted--
		s.used++
		return nil
	}
	if s.used+s.deleted+1 > s.limit {
		if s.deleted < s.compactMin() || s.used+1 > s.limit {
			return ErrFull
		}
		s.compact()
		s.insertFresh(d, loc)
		return nil
	}
	s.slots[empty] = Slot{Digest: d, Loc: loc, state: slotUsed}
	s.used++
	return nil
}

// insertFresh places an entry known to be absent, without key comparison.
func (s *Segment) insertFresh(d uint64, loc meta.Locator) {
	i := d & s.mask
	for s.slots[i].state == slotUsed {
		i = (i + 1) & s.mask
	}
	if s.slots[i].state == slotDeleted {
		s.deleted--
	}
	s.slots[i] = Slot{Digest: d, Loc: loc, state: slotUsed}
	s.used++
}

// compactMin is the tombstone count that justifies a rebuild.
func (s *Segment) compactMin() int { return len(s.slots) / 8 }

// compact rebuilds the slot array without tombstones.
func (s *Segment) compact() {
	s.compactions++
	old := s.slots
	s.slots = make([]Slot, len(old))
	s.used, s.deleted = 0, 0
	for i := range old {
		if old[i].state == slotUsed {
			s.insertFresh(old[i].Digest, old[i].Loc)
		}
	}
}

// Lookup returns the locator stored for key.
func (s *Segment) Lookup(d uint64, key []byte) (meta.Locator, bool) {
	i, ok := s.find(d, key)
	if !ok {
		return meta.Nil, false
	}
	return s.slots[i].Loc, true
}

// Remove clears key's slot and returns the locator it held.
func (s *Segment) Remove(d uint64, key []byte) (meta.Locator, bool) {
	i, ok := s.find(d, key)
	if !ok {
		return meta.Nil, false
	}
	loc := s.slots[i].Loc
	s.slots[i] = Slot{state: slotDeleted}
	s.used--
	s.deleted++

	// Trailing tombstones before an empty slot are dead weight.
	if s.slots[(uint64(i)+1)&s.mask].state == slotEmpty {
		j := uint64(i)
		for s.slots[j].state == slotDeleted {
			s.slots[j].state = slotEmpty
			s.deleted--
			j = (j - 1) & s.mask
		}
	}
	return loc, true
}

// Each calls fn for every live entry in slot order.
func (s *Segment) Each(fn func(d uint64, loc meta.Locator)) {
	for i := range s.slots {
		if s.slots[i].state == slotUsed {
			fn(s.slots[i].Digest, s.slots[i].Loc)
		}
	}
}

// Reset empties the segment, keeping its allocation.
func (s *Segment) Reset() {
	clear(s.slots)
	s.used, s.deleted = 0, 0
}
