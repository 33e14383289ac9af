// Package arena stores variable-length key/value payloads in one growable
// byte buffer addressed by (offset, length) spans.
//
// # Memory Management
//
// Freed spans go to a free list kept sorted by offset; neighbouring free
// spans are merged and a free span touching the end of the buffer shrinks
// the buffer instead of being listed. Allocation is first-fit over the free
// list and falls back to appending at the end.
//
// The arena is not safe for concurrent use. The owning engine serializes
// all access.
package arena

import (
	"errors"
	"math"
	"sort"
)

// ErrOutOfSpace is returned when an allocation would push the buffer past
// the 32-bit span address space.
var ErrOutOfSpace = errors.New("arena: out of span address space")

// maxSize bounds the buffer so every offset and length fits a uint32.
const maxSize = uint64(math.MaxUint32)

// Span locates one payload inside the arena.
type Span struct {
	Off uint32
	Len uint32
}

// End returns the offset one past the last byte of s.
func (s Span) End() uint64 { return uint64(s.Off) + uint64(s.Len) }

// Stats is a point-in-time view of arena usage.
type Stats struct {
	Reserved  int // len of the backing buffer (high-water mark after trims)
	Live      int // bytes held by live spans
	FreeBytes int // bytes sitting in the free list
	FreeSpans int // number of free-list entries
}

// Arena is a first-fit byte allocator. The zero value is ready to use.
type Arena struct {
	buf   []byte
	free  []Span // sorted by Off, never adjacent to each other or to len(buf)
	live  int
	limit uint64 // 0 => maxSize
}

// New returns an arena with capacity preallocated for sizeHint bytes.
func New(sizeHint int) *Arena {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Arena{buf: make([]byte, 0, sizeHint)}
}

// SetLimit caps the buffer length at n bytes. Zero, or anything above the
// span address space, restores the default cap. Live spans past the new
// cap stay valid; only growth is refused.
func (a *Arena) SetLimit(n uint64) {
	if n > maxSize {
		n = 0
	}
	a.limit = n
}

// Limit returns the current buffer cap.
func (a *Arena) Limit() uint64 {
	if a.limit == 0 {
		return maxSize
	}
	return a.limit
}

// Alloc reserves n bytes and returns their span. Contents are unspecified.
func (a *Arena) Alloc(n int) (Span, error) {
	limit := a.Limit()
	if n < 0 || uint64(n) > limit {
		return Span{}, ErrOutOfSpace
	}
	need := uint32(n)

	// first fit
	for i, f := range a.free {
		if f.Len < need {
			continue
		}
		s := Span{Off: f.Off, Len: need}
		if f.Len == need {
			a.free = append(a.free[:i], a.free[i+1:]...)
		} else {
			a.free[i] = Span{Off: f.Off + need, Len: f.Len - need}
		}
		a.live += n
		return s, nil
	}

	off := uint64(len(a.buf))
	if off+uint64(n) > limit {
		return Span{}, ErrOutOfSpace
	}
	a.buf = growLen(a.buf, n, limit)
	a.live += n
	return Span{Off: uint32(off), Len: need}, nil
}

// Write allocates a span large enough for all parts and copies them in
// order. Nothing is allocated if it returns an error.
func (a *Arena) Write(parts ...[]byte) (Span, error) {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	s, err := a.Alloc(total)
	if err != nil {
		return Span{}, err
	}
	dst := a.Bytes(s)
	for _, p := range parts {
		dst = dst[copy(dst, p):]
	}
	return s, nil
}

// Bytes returns the bytes of s. The slice aliases arena memory and is only
// valid until the next mutation of the arena.
func (a *Arena) Bytes(s Span) []byte {
	return a.buf[s.Off : uint64(s.Off)+uint64(s.Len) : uint64(s.Off)+uint64(s.Len)]
}

// Shrink keeps the first n bytes of s and frees the remainder.
func (a *Arena) Shrink(s Span, n int) Span {
	if n < 0 || uint32(n) >= s.Len {
		return s
	}
	keep := Span{Off: s.Off, Len: uint32(n)}
	a.Free(Span{Off: s.Off + uint32(n), Len: s.Len - uint32(n)})
	return keep
}

// Free returns s to the free list. Zero-length spans are ignored.
func (a *Arena) Free(s Span) {
	if s.Len == 0 {
		return
	}
	a.live -= int(s.Len)

	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].Off > s.Off })

	// merge with predecessor
	if i > 0 && a.free[i-1].End() == uint64(s.Off) {
		i--
		s = Span{Off: a.free[i].Off, Len: a.free[i].Len + s.Len}
		a.free = append(a.free[:i], a.free[i+1:]...)
	}
	// merge with successor
	if i < len(a.free) && s.End() == uint64(a.free[i].Off) {
		s.Len += a.free[i].Len
		a.free = append(a.free[:i], a.free[i+1:]...)
	}

	// trailing free space shrinks the buffer
	if s.End() == uint64(len(a.buf)) {
		a.buf = a.buf[:s.Off]
		return
	}

	a.free = append(a.free, Span{})
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = s
}

// Reset drops every span. With release set the backing buffer is handed
// back to the garbage collector; otherwise its capacity is kept for reuse.
func (a *Arena) Reset(release bool) {
	if release {
		a.buf = nil
	} else {
		a.buf = a.buf[:0]
	}
	a.free = nil
	a.live = 0
}

// Live returns the number of bytes held by live spans.
func (a *Arena) Live() int { return a.live }

// Stats returns current usage counters.
func (a *Arena) Stats() Stats {
	st := Stats{Reserved: len(a.buf), Live: a.live, FreeSpans: len(a.free)}
	for _, f := range a.free {
		st.FreeBytes += int(f.Len)
	}
	return st
}

// growLen extends b by n bytes, doubling capacity up to limit when it runs out.
func growLen(b []byte, n int, limit uint64) []byte {
	if len(b)+n <= cap(b) {
		return b[:len(b)+n]
	}
	c := 2 * cap(b)
	if c < len(b)+n {
		c = len(b) + n
	}
	if c < 4096 {
		c = 4096
	}
	if uint64(c) > limit {
		c = int(limit)
	}
	nb := make([]byte, len(b)+n, c)
	copy(nb, b)
	return nb
}
