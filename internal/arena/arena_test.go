package arena

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArena_WriteAndRead(t *testing.T) {
	t.Parallel()

	a := New(0)
	s1, err := a.Write([]byte("key1"), []byte("value1"))
	require.NoError(t, err)
	s2, err := a.Write([]byte("k2"), nil)
	require.NoError(t, err)

	require.Equal(t, []byte("key1value1"), a.Bytes(s1))
	require.Equal(t, []byte("k2"), a.Bytes(s2))
	require.Equal(t, 12, a.Live())
	require.Equal(t, Span{Off: 10, Len: 2}, s2)
}

func TestArena_FirstFitReuse(t *testing.T) {
	t.Parallel()

	a := New(0)
	s1, _ := a.Write(bytes.Repeat([]byte("a"), 10))
	s2, _ := a.Write(bytes.Repeat([]byte("b"), 10))
	_, _ = a.Write(bytes.Repeat([]byte("c"), 10))

	a.Free(s1)
	require.Equal(t, 20, a.Live())

	// a 4-byte write lands at the start of the freed hole
	s4, err := a.Write([]byte("dddd"))
	require.NoError(t, err)
	require.Equal(t, uint32(0), s4.Off)
	require.Equal(t, []byte("bbbbbbbbbb"), a.Bytes(s2))

	st := a.Stats()
	require.Equal(t, 1, st.FreeSpans)
	require.Equal(t, 6, st.FreeBytes)
	require.Equal(t, 30, st.Reserved)
}

func TestArena_CoalesceAndTrim(t *testing.T) {
	t.Parallel()

	a := New(0)
	s1, _ := a.Write(make([]byte, 8))
	s2, _ := a.Write(make([]byte, 8))
	s3, _ := a.Write(make([]byte, 8))
	s4, _ := a.Write(make([]byte, 8))

	a.Free(s1)
	a.Free(s3)
	require.Equal(t, 2, a.Stats().FreeSpans)

	// s2 bridges s1 and s3 into one span
	a.Free(s2)
	st := a.Stats()
	require.Equal(t, 1, st.FreeSpans)
	require.Equal(t, 24, st.FreeBytes)

	// freeing the tail trims the whole buffer
	a.Free(s4)
	st = a.Stats()
	require.Equal(t, Stats{}, st)
	require.Equal(t, 0, a.Live())
}

func TestArena_Shrink(t *testing.T) {
	t.Parallel()

	a := New(0)
	s, _ := a.Write([]byte("0123456789"))
	_, _ = a.Write([]byte("tail"))

	s = a.Shrink(s, 4)
	require.Equal(t, Span{Off: 0, Len: 4}, s)
	require.Equal(t, []byte("0123"), a.Bytes(s))
	require.Equal(t, 8, a.Live())
	require.Equal(t, 6, a.Stats().FreeBytes)

	// no-op when n is not smaller
	require.Equal(t, s, a.Shrink(s, 4))
}

func TestArena_OutOfSpace(t *testing.T) {
	t.Parallel()

	a := New(0)
	a.SetLimit(16)
	require.Equal(t, uint64(16), a.Limit())
	_, err := a.Write(make([]byte, 12))
	require.NoError(t, err)

	_, err = a.Write(make([]byte, 8))
	require.ErrorIs(t, err, ErrOutOfSpace)
	require.Equal(t, 12, a.Live(), "failed write must not allocate")

	// reuse of freed space is not subject to the cap
	s, err := a.Write(make([]byte, 4))
	require.NoError(t, err)
	a.Free(s)
	_, err = a.Write(make([]byte, 4))
	require.NoError(t, err)

	a.SetLimit(0)
	require.Equal(t, maxSize, a.Limit())
	_, err = a.Write(make([]byte, 8))
	require.NoError(t, err)
}

func TestArena_Reset(t *testing.T) {
	t.Parallel()

	a := New(64)
	s, _ := a.Write([]byte("abc"))
	_, _ = a.Write([]byte("def"))
	a.Free(s)

	a.Reset(false)
	require.Equal(t, Stats{}, a.Stats())

	s, err := a.Write([]byte("xyz"))
	require.NoError(t, err)
	require.Equal(t, uint32(0), s.Off)
}
