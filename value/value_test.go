package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/segcache/cache"
)

func TestEncode_WireFormat(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   Value
		tag  cache.Tag
		want []byte
	}{
		{"buffer", Buffer{1, 2, 3}, TagBuffer, []byte{1, 2, 3}},
		{"text", Text("héllo"), TagText, []byte("héllo")},
		{"number", Number(1.5), TagNumber, []byte{0x3f, 0xf8, 0, 0, 0, 0, 0, 0}},
		{"true", Boolean(true), TagBoolean, []byte{1}},
		{"false", Boolean(false), TagBoolean, []byte{0}},
		{"structured", Structured(`{"a":1}`), TagStructured, []byte(`{"a":1}`)},
		{"bigint", BigInteger(-2), TagBigInteger, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe}},
		{"null", Null{}, TagNull, nil},
		{"nil", nil, TagNull, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, tag, err := Encode(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.tag, tag)
			require.Equal(t, len(tc.want), len(b))
			if len(tc.want) > 0 {
				require.Equal(t, tc.want, b)
			}
		})
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, v := range []Value{
		Buffer("raw"),
		Text("ключ 🙂"),
		Number(math.Pi),
		Number(math.Inf(-1)),
		Boolean(true),
		Structured(`[1,"two",{"three":3}]`),
		BigInteger(math.MinInt64),
		BigInteger(math.MaxInt64),
		Null{},
	} {
		b, tag, err := Encode(v)
		require.NoError(t, err)
		got, err := Decode(b, tag)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	bad := []struct {
		b   []byte
		tag cache.Tag
	}{
		{[]byte{1, 2, 3}, TagNumber},
		{[]byte{}, TagBoolean},
		{[]byte{1, 1}, TagBoolean},
		{[]byte{1}, TagBigInteger},
		{[]byte{0}, TagNull},
		{[]byte("{"), TagStructured},
		{[]byte("x"), 42},
	}
	for _, tc := range bad {
		_, err := Decode(tc.b, tc.tag)
		require.ErrorIs(t, err, ErrMalformed, "tag %d len %d", tc.tag, len(tc.b))
	}

	_, _, err := Encode(Structured("not json"))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestStructured(t *testing.T) {
	t.Parallel()

	type point struct{ X, Y int }
	s, err := StructuredOf(point{1, 2})
	require.NoError(t, err)
	require.JSONEq(t, `{"X":1,"Y":2}`, string(s))

	var p point
	require.NoError(t, s.Unmarshal(&p))
	require.Equal(t, point{1, 2}, p)

	_, err = StructuredOf(make(chan int))
	require.Error(t, err)
}

func TestPutFetch(t *testing.T) {
	t.Parallel()

	c := cache.New(cache.Options{})

	r, err := Put(c, "n", Number(42))
	require.NoError(t, err)
	require.Equal(t, cache.Inserted, r)
	r, err = Put(c, "n", Text("forty-two"))
	require.NoError(t, err)
	require.Equal(t, cache.Replaced, r)

	v, ok, err := Fetch(c, "n")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Text("forty-two"), v)

	_, ok, err = Fetch(c, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = Put(c, "", Null{})
	require.ErrorIs(t, err, cache.ErrInvalidKey)

	// bytes stored under the wrong tag surface as ErrMalformed
	_, err = c.Set([]byte("bad"), []byte{1, 2}, TagNumber)
	require.NoError(t, err)
	_, _, err = Fetch(c, "bad")
	require.ErrorIs(t, err, ErrMalformed)
}

func TestPutFetch_Sharded(t *testing.T) {
	t.Parallel()

	c := cache.NewSharded(4, cache.Options{})
	_, err := Put(c, "flag", Boolean(true))
	require.NoError(t, err)

	v, ok, err := Fetch(c, "flag")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Boolean(true), v)
}
