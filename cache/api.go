package cache

// Store is the operation set shared by the bare engine (*Cache) and its
// serialized wrappers (*Locked, *Sharded).
//
// Keys must be non-empty; an empty key yields ErrInvalidKey. A missing key
// is never an error: Get/Peek/Has/Remove report it through their bool.
type Store interface {
	// Set inserts or replaces key→value and promotes the entry to most
	// recently used. Bounds are enforced afterwards, which may evict the
	// entry itself when it cannot fit.
	Set(key, value []byte, tag Tag) (Result, error)

	// Get returns the entry for key and promotes it.
	Get(key []byte) (Entry, bool, error)

	// Peek returns the entry for key without touching recency order.
	Peek(key []byte) (Entry, bool, error)

	// Has reports whether key is present without touching recency order.
	Has(key []byte) (bool, error)

	// Remove deletes key and reports whether it was present.
	Remove(key []byte) (bool, error)

	// Clear drops every entry. Eviction counters are kept.
	Clear()

	// Stats returns a snapshot of the size counters.
	Stats() Stats

	// Len returns the number of resident entries.
	Len() int
}

// Stats is a snapshot of derived counters. Sizes are in bytes.
type Stats struct {
	IndexSize    int64
	MetaSize     int64
	DataSize     int64
	NumKeys      int
	NumIndexes   int
	NumEvictions uint64
}

var (
	_ Store = (*Cache)(nil)
	_ Store = (*Locked)(nil)
	_ Store = (*Sharded)(nil)
)
