package prom

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/segcache/cache"
)

func TestAdapter_ExportsCacheActivity(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	a := New(reg, "segcache", "test", nil)

	c := cache.New(cache.Options{MaxItems: 2, SegmentCapacity: 8, Metrics: a})
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		_, err := c.Set([]byte(k), []byte("vv"), 0)
		require.NoError(t, err)
	}
	_, _, _ = c.Get([]byte("g"))
	_, _, _ = c.Get([]byte("a"))

	require.Equal(t, 1.0, testutil.ToFloat64(a.hits))
	require.Equal(t, 1.0, testutil.ToFloat64(a.misses))
	require.Equal(t, 5.0, testutil.ToFloat64(a.evicts.WithLabelValues("count")))
	require.Equal(t, 2.0, testutil.ToFloat64(a.sizeEnt))
	require.Equal(t, 6.0, testutil.ToFloat64(a.sizeBytes))

	expected := `
# HELP segcache_test_index_segments Number of hash index segments
# TYPE segcache_test_index_segments gauge
segcache_test_index_segments 0
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "segcache_test_index_segments"))
}

func TestAdapter_SegmentsGauge(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	a := New(reg, "segcache", "grow", prometheus.Labels{"app": "test"})

	c := cache.New(cache.Options{SegmentCapacity: 8, Metrics: a})
	for i := 0; i < 20; i++ {
		_, err := c.Set([]byte{byte('a' + i)}, nil, 0)
		require.NoError(t, err)
	}
	require.Equal(t, float64(c.Stats().NumIndexes), testutil.ToFloat64(a.segments))

	c.Clear()
	require.Equal(t, 1.0, testutil.ToFloat64(a.segments))
	require.Equal(t, 0.0, testutil.ToFloat64(a.sizeEnt))
}
