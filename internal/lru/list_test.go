package lru

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/segcache/internal/meta"
)

// order walks head→tail and checks the back links on the way.
func order(t *testing.T, l *List) []meta.Locator {
	t.Helper()

	var out []meta.Locator
	prev := meta.Nil
	for x := l.Head(); x != meta.Nil; x = l.Next(x) {
		require.Equal(t, prev, l.Prev(x), "broken back link at %d", x)
		out = append(out, x)
		prev = x
	}
	require.Equal(t, prev, l.Tail())
	require.Len(t, out, l.Len())
	return out
}

func fill(n int) (*meta.Store, *List) {
	s := meta.NewStore(n)
	l := New(s)
	for i := 0; i < n; i++ {
		l.PushFront(s.Allocate())
	}
	return s, l
}

func TestList_PushFrontOrder(t *testing.T) {
	t.Parallel()

	_, l := fill(4)
	require.Equal(t, []meta.Locator{3, 2, 1, 0}, order(t, l))
}

func TestList_MoveToFront(t *testing.T) {
	t.Parallel()

	_, l := fill(4)

	l.MoveToFront(3) // already head
	require.Equal(t, []meta.Locator{3, 2, 1, 0}, order(t, l))

	l.MoveToFront(1)
	require.Equal(t, []meta.Locator{1, 3, 2, 0}, order(t, l))

	l.MoveToFront(0) // tail
	require.Equal(t, []meta.Locator{0, 1, 3, 2}, order(t, l))
	require.Equal(t, meta.Locator(2), l.Tail())
}

func TestList_Remove(t *testing.T) {
	t.Parallel()

	_, l := fill(3)

	l.Remove(1) // middle
	require.Equal(t, []meta.Locator{2, 0}, order(t, l))

	l.Remove(2) // head
	require.Equal(t, []meta.Locator{0}, order(t, l))

	l.Remove(0) // last
	require.Empty(t, order(t, l))
	require.Equal(t, meta.Nil, l.Head())
	require.Equal(t, meta.Nil, l.Tail())
}

func TestList_Reset(t *testing.T) {
	t.Parallel()

	_, l := fill(3)
	l.Reset()
	require.Equal(t, 0, l.Len())
	require.Equal(t, meta.Nil, l.Head())
}
