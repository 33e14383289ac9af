package util

import (
	"math/bits"
	"runtime"
)

// IsPowerOfTwo reports whether x is a power of two (> 0).
func IsPowerOfTwo(x uint64) bool { return x != 0 && x&(x-1) == 0 }

// NextPow2 returns the smallest power of two >= x. 0 and 1 map to 1; values
// above 1<<63 clamp to 1<<63.
func NextPow2(x uint64) uint64 {
	if x <= 1 {
		return 1
	}
	n := bits.Len64(x - 1)
	if n >= 64 {
		return 1 << 63
	}
	return 1 << n
}

// ReasonableShardCount is nextPow2(2*GOMAXPROCS), clamped to [1..256].
func ReasonableShardCount() int {
	n := int(NextPow2(uint64(2 * max(runtime.GOMAXPROCS(0), 1))))
	return min(n, 256)
}

// ShardIndex maps a 64-bit hash to a shard index: a mask for power-of-two
// counts, modulo otherwise.
func ShardIndex(hash uint64, shards int) int {
	if shards <= 1 {
		return 0
	}
	if IsPowerOfTwo(uint64(shards)) {
		return int(hash & uint64(shards-1))
	}
	return int(hash % uint64(shards))
}
