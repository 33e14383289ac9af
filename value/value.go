// Package value maps typed application values to the (bytes, tag) pairs the
// cache engine stores, and back.
//
// Value is a closed sum type: Buffer, Text, Number, Boolean, Structured,
// BigInteger and Null are its only variants.
package value

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/IvanBrykalov/segcache/cache"
)

// Wire tags stored next to every encoded value.
const (
	TagBuffer     cache.Tag = 0
	TagText       cache.Tag = 1
	TagNumber     cache.Tag = 2
	TagBoolean    cache.Tag = 3
	TagStructured cache.Tag = 4
	TagBigInteger cache.Tag = 5
	TagNull       cache.Tag = 6
)

// ErrMalformed is returned by Decode when the bytes cannot hold a value of
// the given tag.
var ErrMalformed = errors.New("value: malformed encoding")

// Value is one of the variants below.
type Value interface {
	// Tag returns the wire tag of the variant.
	Tag() cache.Tag
	sealed()
}

type (
	// Buffer is raw bytes, stored as is.
	Buffer []byte
	// Text is a UTF-8 string.
	Text string
	// Number is an IEEE-754 double, stored as 8 big-endian bytes.
	Number float64
	// Boolean is stored as a single 0 or 1 byte.
	Boolean bool
	// Structured is a JSON document.
	Structured json.RawMessage
	// BigInteger is a signed 64-bit integer, stored as 8 big-endian bytes.
	BigInteger int64
	// Null is the absent value; it encodes to zero bytes.
	Null struct{}
)

func (Buffer) Tag() cache.Tag     { return TagBuffer }
func (Text) Tag() cache.Tag       { return TagText }
func (Number) Tag() cache.Tag     { return TagNumber }
func (Boolean) Tag() cache.Tag    { return TagBoolean }
func (Structured) Tag() cache.Tag { return TagStructured }
func (BigInteger) Tag() cache.Tag { return TagBigInteger }
func (Null) Tag() cache.Tag       { return TagNull }

func (Buffer) sealed()     {}
func (Text) sealed()       {}
func (Number) sealed()     {}
func (Boolean) sealed()    {}
func (Structured) sealed() {}
func (BigInteger) sealed() {}
func (Null) sealed()       {}

// StructuredOf serializes v as JSON.
func StructuredOf(v any) (Structured, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("value: structured: %w", err)
	}
	return Structured(b), nil
}

// Unmarshal decodes the JSON document into dst.
func (s Structured) Unmarshal(dst any) error { return json.Unmarshal(s, dst) }

// Encode returns the bytes and tag to store for v. A nil v encodes as Null.
func Encode(v Value) ([]byte, cache.Tag, error) {
	switch x := v.(type) {
	case nil, Null:
		return nil, TagNull, nil
	case Buffer:
		return x, TagBuffer, nil
	case Text:
		return []byte(x), TagText, nil
	case Number:
		return binary.BigEndian.AppendUint64(nil, math.Float64bits(float64(x))), TagNumber, nil
	case Boolean:
		if x {
			return []byte{1}, TagBoolean, nil
		}
		return []byte{0}, TagBoolean, nil
	case Structured:
		if !json.Valid(x) {
			return nil, 0, fmt.Errorf("value: structured: invalid JSON: %w", ErrMalformed)
		}
		return x, TagStructured, nil
	case BigInteger:
		return binary.BigEndian.AppendUint64(nil, uint64(x)), TagBigInteger, nil
	default:
		return nil, 0, fmt.Errorf("value: unsupported variant %T", v)
	}
}

// Decode rebuilds the value stored under tag. b is not retained.
func Decode(b []byte, tag cache.Tag) (Value, error) {
	switch tag {
	case TagBuffer:
		return Buffer(append([]byte{}, b...)), nil
	case TagText:
		return Text(b), nil
	case TagNumber:
		if len(b) != 8 {
			return nil, malformed(tag, len(b))
		}
		return Number(math.Float64frombits(binary.BigEndian.Uint64(b))), nil
	case TagBoolean:
		if len(b) != 1 {
			return nil, malformed(tag, len(b))
		}
		return Boolean(b[0] != 0), nil
	case TagStructured:
		if !json.Valid(b) {
			return nil, fmt.Errorf("value: structured: invalid JSON: %w", ErrMalformed)
		}
		return Structured(append([]byte{}, b...)), nil
	case TagBigInteger:
		if len(b) != 8 {
			return nil, malformed(tag, len(b))
		}
		return BigInteger(int64(binary.BigEndian.Uint64(b))), nil
	case TagNull:
		if len(b) != 0 {
			return nil, malformed(tag, len(b))
		}
		return Null{}, nil
	default:
		return nil, fmt.Errorf("value: unknown tag %d: %w", tag, ErrMalformed)
	}
}

func malformed(tag cache.Tag, n int) error {
	return fmt.Errorf("value: %d bytes for tag %d: %w", n, tag, ErrMalformed)
}

// Put encodes v and stores it under key.
func Put(s cache.Store, key string, v Value) (cache.Result, error) {
	b, tag, err := Encode(v)
	if err != nil {
		return 0, err
	}
	return s.Set([]byte(key), b, tag)
}

// Fetch reads key with promotion and decodes it. A missing key returns
// (nil, false, nil).
func Fetch(s cache.Store, key string) (Value, bool, error) {
	e, ok, err := s.Get([]byte(key))
	if err != nil || !ok {
		return nil, false, err
	}
	v, err := Decode(e.Value, e.Tag)
	if err != nil {
		return nil, false, fmt.Errorf("value: fetch %q: %w", key, err)
	}
	return v, true, nil
}
