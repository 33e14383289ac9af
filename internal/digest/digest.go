// Package digest maps raw key bytes to the fixed-width integers used to
// address index slots. Digests are deterministic and not cryptographic;
// callers must still compare full key bytes on every candidate match.
package digest

import "github.com/cespare/xxhash/v2"

// Func is the digest signature accepted by the engine.
type Func func(key []byte) uint64

// Sum is the default digest (xxHash64). It is fast on short keys and
// spreads sequential keys ("key1", "key2", ...) evenly across slots.
func Sum(key []byte) uint64 { return xxhash.Sum64(key) }

const (
	fnvOffset64 = 1469598103934665603
	fnvPrime64  = 1099511628211
)

// FNV1a hashes key with 64-bit FNV-1a. Neighbouring keys that differ only in
// the last byte get numerically close digests, which makes it handy for
// exercising collision paths in tests.
func FNV1a(key []byte) uint64 {
	h := uint64(fnvOffset64)
	for _, c := range key {
		h ^= uint64(c)
		h *= fnvPrime64
	}
	return h
}
