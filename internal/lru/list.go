// Package lru implements the intrusive MRU↔LRU list threaded through
// metadata records. The list owns only the Prev/Next links and the
// head/tail pointers; record allocation belongs to meta.Store.
package lru

import "github.com/IvanBrykalov/segcache/internal/meta"

// List is a doubly linked list over records of one store.
// Head is the most recently used record, Tail the least recently used.
type List struct {
	store *meta.Store
	head  meta.Locator
	tail  meta.Locator
	len   int
}

// New returns an empty list over store.
func New(store *meta.Store) *List {
	return &List{store: store, head: meta.Nil, tail: meta.Nil}
}

// Head returns the MRU record, or meta.Nil when empty.
func (l *List) Head() meta.Locator { return l.head }

// Tail returns the LRU record, or meta.Nil when empty.
func (l *List) Tail() meta.Locator { return l.tail }

// Len returns the number of linked records.
func (l *List) Len() int { return l.len }

// Next returns the neighbour of x toward the tail.
func (l *List) Next(x meta.Locator) meta.Locator { return l.store.At(x).Next }

// Prev returns the neighbour of x toward the head.
func (l *List) Prev(x meta.Locator) meta.Locator { return l.store.At(x).Prev }

// PushFront links x at the head in O(1). x must not be linked.
func (l *List) PushFront(x meta.Locator) {
	r := l.store.At(x)
	r.Prev = meta.Nil
	r.Next = l.head
	if l.head != meta.Nil {
		l.store.At(l.head).Prev = x
	}
	l.head = x
	if l.tail == meta.Nil {
		l.tail = x
	}
	l.len++
}

// MoveToFront promotes x to the head in O(1). No-op if x is already head.
func (l *List) MoveToFront(x meta.Locator) {
	if x == l.head {
		return
	}
	l.Remove(x)
	l.PushFront(x)
}

// Remove unlinks x in O(1).
func (l *List) Remove(x meta.Locator) {
	r := l.store.At(x)
	if r.Prev != meta.Nil {
		l.store.At(r.Prev).Next = r.Next
	}
	if r.Next != meta.Nil {
		l.store.At(r.Next).Prev = r.Prev
	}
	if l.head == x {
		l.head = r.Next
	}
	if l.tail == x {
		l.tail = r.Prev
	}
	r.Prev, r.Next = meta.Nil, meta.Nil
	l.len--
}

// Reset forgets every link without touching the records.
func (l *List) Reset() {
	l.head, l.tail, l.len = meta.Nil, meta.Nil, 0
}
