package view

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/logdash/ingest"
	"github.com/c360/logdash/types"
)

func newSource(t *testing.T) *ingest.Buffer[types.LogEntry] {
	t.Helper()
	b, err := ingest.New[types.LogEntry](ingest.WithFlushInterval(5 * time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestView_TracksSourceAndFilter(t *testing.T) {
	source := newSource(t)
	v := New[types.LogEntry](source)
	defer v.Close()

	var mu sync.Mutex
	seen := 0
	v.Subscribe(func([]types.LogEntry) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	for _, e := range sampleEntries() {
		source.Add(e)
	}
	require.Eventually(t, func() bool { return len(v.Items()) == 4 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"4", "3", "2", "1"}, ids(v.Items()))

	v.SetFilter("disk")
	assert.Equal(t, "disk", v.Filter())
	assert.Equal(t, []string{"2"}, ids(v.Items()))

	source.Add(types.LogEntry{ID: "5", Level: "error", Message: "disk gone"})
	require.Eventually(t, func() bool { return len(v.Items()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"5", "2"}, ids(v.Items()))

	v.SetFilter(" ")
	assert.Equal(t, source.Snapshot(), v.Items())

	source.ClearCollection()
	assert.Empty(t, v.Items())
	mu.Lock()
	assert.GreaterOrEqual(t, seen, 5)
	mu.Unlock()
}

func TestView_SetSameFilterIsNoop(t *testing.T) {
	v := New[types.LogEntry](newSource(t))
	defer v.Close()

	calls := 0
	v.Subscribe(func([]types.LogEntry) { calls++ })
	v.SetFilter("")
	assert.Equal(t, 0, calls)
	v.SetFilter("x")
	v.SetFilter("x")
	assert.Equal(t, 1, calls)
}

func TestView_Close(t *testing.T) {
	source := newSource(t)
	v := New[types.LogEntry](source)
	v.Close()

	source.Add(types.LogEntry{ID: "1"})
	require.Eventually(t, func() bool { return source.Len() == 1 }, time.Second, time.Millisecond)
	assert.Empty(t, v.Items())
}
