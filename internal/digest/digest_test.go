package digest

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSum_Deterministic(t *testing.T) {
	t.Parallel()

	k := []byte("hello")
	require.Equal(t, Sum(k), Sum([]byte("hello")))
	require.NotEqual(t, Sum(k), Sum([]byte("hellp")))
}

// Known FNV-1a 64 vectors.
func TestFNV1a_Vectors(t *testing.T) {
	t.Parallel()

	require.Equal(t, uint64(0xcbf29ce484222325), FNV1a(nil))
	require.Equal(t, uint64(0xaf63dc4c8601ec8c), FNV1a([]byte("a")))
}

// Low bits of sequential keys should land in many different buckets.
func TestSum_LowBitSpread(t *testing.T) {
	t.Parallel()

	const buckets = 64
	seen := make(map[uint64]int)
	for i := 0; i < 4096; i++ {
		seen[Sum([]byte("key"+strconv.Itoa(i)))%buckets]++
	}
	require.Len(t, seen, buckets)
	for b, n := range seen {
		require.Greaterf(t, n, 16, "bucket %d underfilled", b)
	}
}
