package cache

import (
	"math/rand"
	"strconv"
	"sync/atomic"
	"testing"
)

// benchmarkMix exercises a read/write mix against a warm sharded cache.
// It uses parallel workers (RunParallel spawns GOMAXPROCS goroutines).
func benchmarkMix(b *testing.B, readsPct int) {
	c := NewSharded(0, Options{MaxItems: 100_000})

	// Preload half the capacity to get a realistic hit-rate.
	for i := 0; i < 50_000; i++ {
		_, _ = c.Set([]byte("k:"+strconv.Itoa(i)), []byte("v"), 0)
	}

	// Report per-op allocations for a rough idea where costs go.
	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := (1 << 16) - 1 // hot keyspace (power of two for fast &-mask)

	b.RunParallel(func(pb *testing.PB) {
		// Independent RNG stream for each worker.
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		buf := make([]byte, 0, 16)
		i := 0
		for pb.Next() {
			k := strconv.AppendInt(append(buf[:0], "k:"...), int64(i&keyMask), 10)
			if r.Intn(100) < readsPct {
				_, _, _ = c.Get(k)
			} else {
				_, _ = c.Set(k, []byte("v"), 0)
			}
			i++
		}
	})
}

func BenchmarkSharded_90r10w(b *testing.B) { benchmarkMix(b, 90) }
func BenchmarkSharded_50r50w(b *testing.B) { benchmarkMix(b, 50) }

// BenchmarkCache_Set measures the single-threaded insert path including
// segment growth and LRU eviction.
func BenchmarkCache_Set(b *testing.B) {
	c := New(Options{MaxItems: 1 << 16})
	keys := make([][]byte, 1<<18)
	for i := range keys {
		keys[i] = []byte("key" + strconv.Itoa(i))
	}
	val := make([]byte, 64)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Set(keys[i&(len(keys)-1)], val, 0)
	}
}

func BenchmarkCache_Get(b *testing.B) {
	c := New(Options{})
	keys := make([][]byte, 1<<16)
	for i := range keys {
		keys[i] = []byte("key" + strconv.Itoa(i))
		_, _ = c.Set(keys[i], keys[i], 0)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = c.Get(keys[i&(len(keys)-1)])
	}
}
