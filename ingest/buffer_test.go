package ingest

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/logdash/metric"
)

type updates struct {
	mu  sync.Mutex
	all []Update[int]
}

func (u *updates) record(up Update[int]) {
	u.mu.Lock()
	u.all = append(u.all, up)
	u.mu.Unlock()
}

func (u *updates) list() []Update[int] {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]Update[int](nil), u.all...)
}

func (u *updates) count() int {
	return len(u.list())
}

func newBuffer(t *testing.T, opts ...Option) (*Buffer[int], *updates) {
	t.Helper()
	b, err := New[int](opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	rec := &updates{}
	b.Subscribe(rec.record)
	return b, rec
}

func seq(from, to int) []int {
	var out []int
	if from <= to {
		for i := from; i <= to; i++ {
			out = append(out, i)
		}
		return out
	}
	for i := from; i >= to; i-- {
		out = append(out, i)
	}
	return out
}

func TestBuffer_Defaults(t *testing.T) {
	b, _ := newBuffer(t)
	assert.Equal(t, DefaultCapacity, b.Capacity())
	assert.Equal(t, DefaultFlushInterval, b.interval)
	assert.Empty(t, b.Snapshot())
	assert.False(t, b.Paused())
}

func TestBuffer_BurstProducesOneUpdate(t *testing.T) {
	b, rec := newBuffer(t, WithFlushInterval(50*time.Millisecond))

	for i := 0; i < 100; i++ {
		b.Add(i)
	}

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	ups := rec.list()
	require.Len(t, ups, 1)
	assert.Equal(t, 100, ups[0].Added)
	assert.Equal(t, seq(99, 0), ups[0].Items)
	assert.Equal(t, seq(99, 0), b.Snapshot())
}

func TestBuffer_OrderingAcrossFlushes(t *testing.T) {
	b, rec := newBuffer(t, WithFlushInterval(10*time.Millisecond))

	b.Add(1) // A
	b.Add(2) // B
	b.Add(3) // C
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []int{3, 2, 1}, b.Snapshot())

	b.Add(4)
	b.Add(5)
	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []int{5, 4, 3, 2, 1}, b.Snapshot())
	assert.Equal(t, 2, rec.list()[1].Added)
}

func TestBuffer_CapacityBound(t *testing.T) {
	b, rec := newBuffer(t, WithCapacity(10), WithFlushInterval(10*time.Millisecond))

	for i := 0; i < 25; i++ {
		b.Add(i)
	}
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, seq(24, 15), b.Snapshot())
	assert.Equal(t, int64(15), b.Dropped())

	for i := 25; i < 30; i++ {
		b.Add(i)
	}
	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, append(seq(29, 25), seq(24, 20)...), b.Snapshot())
	assert.Len(t, b.Snapshot(), 10)
}

func TestBuffer_AddDoesNotTouchCollection(t *testing.T) {
	b, rec := newBuffer(t, WithFlushInterval(time.Hour))

	b.Add(1)
	b.Add(2)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 2, b.PendingSize())
	assert.Equal(t, 0, rec.count())
}

func TestBuffer_TimerNotRearmed(t *testing.T) {
	b, rec := newBuffer(t, WithFlushInterval(200*time.Millisecond))

	b.Add(1)
	time.Sleep(50 * time.Millisecond)
	b.Add(2)

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	ups := rec.list()
	assert.Equal(t, []int{2, 1}, ups[0].Items)
}

func TestBuffer_Pause(t *testing.T) {
	b, rec := newBuffer(t, WithFlushInterval(10*time.Millisecond))

	b.Add(1)
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, time.Millisecond)

	b.SetPaused(true)
	assert.True(t, b.Paused())
	b.Add(2)
	b.Add(3)
	b.Add(4)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, 3, b.PendingSize())
	assert.Equal(t, 1, rec.count())

	b.SetPaused(false)
	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []int{4, 3, 2, 1}, b.Snapshot())
	assert.Equal(t, 0, b.PendingSize())
	assert.Equal(t, 3, rec.list()[1].Added)
}

func TestBuffer_PausedPendingIsCapped(t *testing.T) {
	b, _ := newBuffer(t, WithCapacity(5), WithFlushInterval(10*time.Millisecond))
	b.SetPaused(true)

	for i := 0; i < 8; i++ {
		b.Add(i)
	}
	assert.Equal(t, 5, b.PendingSize())
	assert.True(t, b.IsPendingFull())
	assert.Equal(t, int64(3), b.Dropped())

	b.SetPaused(false)
	require.Eventually(t, func() bool { return b.Len() == 5 }, time.Second, time.Millisecond)
	assert.Equal(t, seq(7, 3), b.Snapshot())
	assert.False(t, b.IsPendingFull())
}

func TestBuffer_ClearsAreIndependent(t *testing.T) {
	b, rec := newBuffer(t, WithFlushInterval(10*time.Millisecond))

	b.Add(1)
	b.Add(2)
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, time.Millisecond)

	b.SetPaused(true)
	b.Add(3)

	b.ClearCollection()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 1, b.PendingSize())
	ups := rec.list()
	require.Len(t, ups, 2)
	assert.True(t, ups[1].Cleared)
	assert.Empty(t, ups[1].Items)

	b.Add(4)
	b.ClearPending()
	assert.Equal(t, 0, b.PendingSize())

	b.SetPaused(false)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 2, rec.count())
}

func TestBuffer_SnapshotStableAcrossFlushes(t *testing.T) {
	b, rec := newBuffer(t, WithFlushInterval(10*time.Millisecond))

	b.Add(1)
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, time.Millisecond)
	first := b.Snapshot()

	b.Add(2)
	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []int{1}, first)
	assert.Equal(t, []int{2, 1}, b.Snapshot())
}

func TestBuffer_Unsubscribe(t *testing.T) {
	b, err := New[int](WithFlushInterval(10 * time.Millisecond))
	require.NoError(t, err)
	defer b.Close()

	calls := 0
	var mu sync.Mutex
	cancel := b.Subscribe(func(Update[int]) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	cancel()

	b.Add(1)
	require.Eventually(t, func() bool { return b.Len() == 1 }, time.Second, time.Millisecond)
	mu.Lock()
	assert.Equal(t, 0, calls)
	mu.Unlock()
}

func TestBuffer_Close(t *testing.T) {
	b, rec := newBuffer(t, WithFlushInterval(20*time.Millisecond))

	b.Add(1)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	b.Add(2)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
	assert.Equal(t, 0, b.Len())
}

func TestBuffer_Metrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	b, rec := newBuffer(t, WithFlushInterval(10*time.Millisecond), WithMetrics(registry, "live"))

	b.Add(1)
	b.Add(2)
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, time.Millisecond)
	b.ClearCollection()

	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.flushes))
	assert.Equal(t, 2.0, testutil.ToFloat64(b.metrics.flushed))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.clears))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.metrics.collection))

	_, err := New[int](WithMetrics(registry, "live"))
	assert.Error(t, err)
}
