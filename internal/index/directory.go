package index

import (
	"github.com/IvanBrykalov/segcache/internal/meta"
	"github.com/IvanBrykalov/segcache/internal/util"
)

// DefaultCapacity is the per-segment slot count used when none is given.
const DefaultCapacity = 4096

// Directory is the ordered list of segments. Only the active segment takes
// new keys. When it fills up, a segment drained to zero entries is recycled
// as the new active one, else a fresh segment is appended. Existing segments
// are never rehashed into a bigger table and never change position, so a
// segment index recorded at insert time stays valid until Reset.
type Directory struct {
	segs     []*Segment
	active   int
	capacity int
	keys     Keys

	// OnGrow, when set, is called after a segment is appended with the new
	// segment count.
	OnGrow func(segments int)
}

// NewDirectory returns a directory holding one empty segment. capacity is
// rounded up to a power of two (0 => DefaultCapacity).
func NewDirectory(capacity int, keys Keys) *Directory {
	d := &Directory{capacity: NormalizeCapacity(capacity), keys: keys}
	d.segs = []*Segment{NewSegment(d.capacity, keys)}
	return d
}

// NormalizeCapacity applies the default and power-of-two rounding.
func NormalizeCapacity(capacity int) int {
	if capacity <= 0 {
		return DefaultCapacity
	}
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	return int(util.NextPow2(uint64(capacity)))
}

// Len returns the segment count (numIndexes).
func (d *Directory) Len() int { return len(d.segs) }

// Capacity returns the slot count of each segment.
func (d *Directory) Capacity() int { return d.capacity }

// Segment returns segment i, or nil when out of range.
func (d *Directory) Segment(i int) *Segment {
	if i < 0 || i >= len(d.segs) {
		return nil
	}
	return d.segs[i]
}

// Entries returns the number of live slots across all segments.
func (d *Directory) Entries() int {
	n := 0
	for _, s := range d.segs {
		n += s.Len()
	}
	return n
}

// Size returns the allocated byte cost of all segments (indexSize).
func (d *Directory) Size() int64 {
	var n int64
	for _, s := range d.segs {
		n += s.Size()
	}
	return n
}

// Active returns the index of the segment taking new keys.
func (d *Directory) Active() int { return d.active }

// Insert adds key→loc to the active segment, switching to an empty or new
// segment when the active one is full. It returns the index of the segment
// holding the entry. Callers insert keys they have already looked up and
// not found; replaced is only reported for a key present in the active
// segment.
func (d *Directory) Insert(dg uint64, key []byte, loc meta.Locator) (seg int, replaced bool) {
	replaced, err := d.segs[d.active].Insert(dg, key, loc)
	if err == nil {
		return d.active, replaced
	}

	// A drained segment only holds tombstones; wiping it is cheaper than
	// growing the directory.
	for i, s := range d.segs {
		if i != d.active && s.Len() == 0 {
			s.Reset()
			d.active = i
			_, _ = s.Insert(dg, key, loc)
			return i, false
		}
	}

	s := NewSegment(d.capacity, d.keys)
	d.segs = append(d.segs, s)
	if d.OnGrow != nil {
		d.OnGrow(len(d.segs))
	}
	d.active = len(d.segs) - 1
	// A fresh segment always has room.
	_, _ = s.Insert(dg, key, loc)
	return d.active, false
}

// Lookup searches segments from the last appended to the first.
func (d *Directory) Lookup(dg uint64, key []byte) (loc meta.Locator, seg int, ok bool) {
	for i := len(d.segs) - 1; i >= 0; i-- {
		if loc, ok := d.segs[i].Lookup(dg, key); ok {
			return loc, i, true
		}
	}
	return meta.Nil, -1, false
}

// Remove deletes key from whichever segment holds it.
func (d *Directory) Remove(dg uint64, key []byte) (meta.Locator, bool) {
	for i := len(d.segs) - 1; i >= 0; i-- {
		if loc, ok := d.segs[i].Remove(dg, key); ok {
			return loc, true
		}
	}
	return meta.Nil, false
}

// RemoveFrom deletes key from segment seg only.
func (d *Directory) RemoveFrom(seg int, dg uint64, key []byte) bool {
	s := d.Segment(seg)
	if s == nil {
		return false
	}
	_, ok := s.Remove(dg, key)
	return ok
}

// ClearSegment calls release for every entry of segment i and empties it.
// When no segment holds entries afterwards the directory collapses to a
// single fresh segment. It reports whether i was in range.
func (d *Directory) ClearSegment(i int, release func(loc meta.Locator)) bool {
	s := d.Segment(i)
	if s == nil {
		return false
	}
	s.Each(func(_ uint64, loc meta.Locator) { release(loc) })
	s.Reset()

	if len(d.segs) > 1 && d.Entries() == 0 {
		d.Reset()
	}
	return true
}

// Reset discards every segment and starts over with one empty segment.
func (d *Directory) Reset() {
	d.segs = []*Segment{NewSegment(d.capacity, d.keys)}
	d.active = 0
}
