package cache

import (
	"sort"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/logdash/errors"
	"github.com/c360/logdash/metric"
)

func TestSimpleCache_BasicOperations(t *testing.T) {
	c, err := NewSimple[string]()
	require.NoError(t, err)
	defer c.Close()

	created, err := c.Set("a", "1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = c.Set("a", "2")
	require.NoError(t, err)
	assert.False(t, created)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	_, _ = c.Set("b", "3")
	keys := c.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"a", "b"}, keys)
	assert.Equal(t, 2, c.Size())

	deleted, err := c.Delete("a")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = c.Delete("a")
	require.NoError(t, err)
	assert.False(t, deleted)

	require.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Size())

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits())
	assert.Equal(t, int64(1), stats.Misses())
	assert.Equal(t, int64(3), stats.Sets())
	assert.InDelta(t, 0.5, stats.HitRatio(), 0.001)
}

func TestSimpleCache_EmptyKey(t *testing.T) {
	c, err := NewSimple[int]()
	require.NoError(t, err)

	_, err = c.Set("", 1)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	_, err = c.Delete("")
	assert.True(t, errors.IsInvalid(err))
}

func TestSimpleCache_Metrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	c, err := NewSimple(WithMetrics[int](registry, "session"))
	require.NoError(t, err)

	_, _ = c.Set("k", 1)
	_, _ = c.Get("k")
	_, _ = c.Get("nope")

	sc := c.(*simpleCache[int])
	assert.Equal(t, 1.0, testutil.ToFloat64(sc.metrics.lookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sc.metrics.lookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sc.metrics.size))
}

func TestSimpleCache_Concurrent(t *testing.T) {
	c, err := NewSimple[int]()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := string(rune('a' + n))
			for j := 0; j < 100; j++ {
				_, _ = c.Set(key, j)
				_, _ = c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, c.Size())
}
