package util

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestNextPow2(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want uint64 }{
		{0, 1},
		{1, 1},
		{3, 4},
		{8, 8},
		{4097, 8192},
		{1<<63 + 1, 1 << 63},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, NextPow2(tc.in), "NextPow2(%d)", tc.in)
	}
}

func TestShardIndex(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, ShardIndex(12345, 1))
	require.Equal(t, 5, ShardIndex(0xFD, 8))  // mask path
	require.Equal(t, 1, ShardIndex(10, 3))    // modulo path
	for h := uint64(0); h < 1000; h++ {
		i := ShardIndex(h*0x9E3779B97F4A7C15, 16)
		require.True(t, i >= 0 && i < 16)
	}
}

func TestReasonableShardCount(t *testing.T) {
	t.Parallel()

	n := ReasonableShardCount()
	require.True(t, IsPowerOfTwo(uint64(n)))
	require.LessOrEqual(t, n, 256)
}

// Padded counters must each own a full cache line to avoid false sharing.
func TestPadded_OneCacheLine(t *testing.T) {
	t.Parallel()

	require.Equal(t, uintptr(CacheLineSize), unsafe.Sizeof(PaddedAtomicInt64{}))
	require.Equal(t, uintptr(CacheLineSize), unsafe.Sizeof(PaddedAtomicUint64{}))
	require.Equal(t, uintptr(CacheLineSize), unsafe.Sizeof(CacheLinePad{}))

	var pair struct {
		a PaddedAtomicUint64
		b PaddedAtomicUint64
	}
	require.Equal(t, uintptr(CacheLineSize), unsafe.Offsetof(pair.b)-unsafe.Offsetof(pair.a))
}
