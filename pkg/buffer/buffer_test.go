package buffer

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/c360/logdash/errors"
	"github.com/c360/logdash/metric"
)

func TestCircularBufferBasicOperations(t *testing.T) {
	buf, err := NewCircularBuffer[string](3)
	require.NoError(t, err)
	defer buf.Close()

	assert.Equal(t, 0, buf.Size())
	assert.Equal(t, 3, buf.Capacity())

	require.NoError(t, buf.Write("first"))
	require.NoError(t, buf.Write("second"))
	require.NoError(t, buf.Write("third"))
	assert.True(t, buf.IsFull())

	assert.Equal(t, []string{"first", "second"}, buf.ReadBatch(2))
	assert.Equal(t, 1, buf.Size())
	assert.Equal(t, []string{"third"}, buf.ReadBatch(10))
	assert.Empty(t, buf.ReadBatch(10))
}

func TestCircularBuffer_DropOldest(t *testing.T) {
	var dropped []int
	buf, err := NewCircularBuffer(3, WithDropCallback[int](func(item int) {
		dropped = append(dropped, item)
	}))
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		require.NoError(t, buf.Write(i))
	}

	assert.Equal(t, []int{1, 2}, dropped)
	assert.Equal(t, int64(2), buf.Stats().Drops())
	assert.Equal(t, int64(5), buf.Stats().Writes())
	assert.Equal(t, []int{5, 4, 3}, buf.DrainNewestFirst())
	assert.Equal(t, 0, buf.Size())
}

func TestCircularBuffer_DropNewest(t *testing.T) {
	buf, err := NewCircularBuffer(2, WithOverflowPolicy[int](DropNewest))
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		require.NoError(t, buf.Write(i))
	}

	assert.Equal(t, []int{1, 2}, buf.ReadBatch(-1))
	assert.Equal(t, int64(2), buf.Stats().Drops())
}

func TestCircularBuffer_DrainNewestFirstAfterWrap(t *testing.T) {
	buf, err := NewCircularBuffer[int](4)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		require.NoError(t, buf.Write(i))
	}
	assert.Equal(t, []int{1, 2}, buf.ReadBatch(2))
	for i := 4; i <= 6; i++ {
		require.NoError(t, buf.Write(i))
	}

	assert.Equal(t, []int{6, 5, 4, 3}, buf.DrainNewestFirst())
	assert.Equal(t, int64(4), buf.Stats().MaxSize())

	// Buffer is reusable after a drain
	require.NoError(t, buf.Write(7))
	assert.Equal(t, []int{7}, buf.DrainNewestFirst())
}

func TestCircularBuffer_ClearAndClose(t *testing.T) {
	buf, err := NewCircularBuffer[int](2)
	require.NoError(t, err)

	require.NoError(t, buf.Write(1))
	buf.Clear()
	assert.Equal(t, 0, buf.Size())
	assert.Equal(t, int64(0), buf.Stats().Drops())

	require.NoError(t, buf.Close())
	err = buf.Write(2)
	require.Error(t, err)
	assert.True(t, cerrors.IsInvalid(err))
}

func TestCircularBuffer_ZeroCapacity(t *testing.T) {
	buf, err := NewCircularBuffer[int](0)
	require.NoError(t, err)
	assert.Equal(t, 1, buf.Capacity())
}

func TestCircularBuffer_Metrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	buf, err := NewCircularBuffer(2, WithMetrics[int](registry, "pending"))
	require.NoError(t, err)

	require.NoError(t, buf.Write(1))
	require.NoError(t, buf.Write(2))
	require.NoError(t, buf.Write(3))

	cb := buf.(*circularBuffer[int])
	assert.Equal(t, float64(3), testutil.ToFloat64(cb.metrics.writes))
	assert.Equal(t, float64(1), testutil.ToFloat64(cb.metrics.drops))
	assert.Equal(t, float64(2), testutil.ToFloat64(cb.metrics.size))
	assert.Equal(t, 1.0, testutil.ToFloat64(cb.metrics.utilization))

	// Duplicate prefix fails registration
	_, err = NewCircularBuffer(2, WithMetrics[int](registry, "pending"))
	require.Error(t, err)
}

func TestCircularBuffer_ConcurrentWrites(t *testing.T) {
	buf, err := NewCircularBuffer[int](50)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = buf.Write(base*100 + i)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 50, buf.Size())
	assert.Equal(t, int64(800), buf.Stats().Writes())
	assert.Equal(t, int64(750), buf.Stats().Drops())
}
