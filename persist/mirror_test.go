package persist

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/logdash/errors"
	"github.com/c360/logdash/natsclient"
)

type prefs struct {
	PageSize int    `json:"pageSize"`
	Theme    string `json:"theme"`
}

type failingBackend struct {
	getErr error
	setErr error
}

func (f failingBackend) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.getErr }
func (f failingBackend) Set(context.Context, string, []byte) error { return f.setErr }

// gatedBackend holds the first Set until release is closed.
type gatedBackend struct {
	mu      sync.Mutex
	data    map[string][]byte
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (g *gatedBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.data[key]
	return v, ok, nil
}

func (g *gatedBackend) Set(_ context.Context, key string, value []byte) error {
	g.mu.Lock()
	g.calls++
	first := g.calls == 1
	g.mu.Unlock()

	if first {
		close(g.entered)
		<-g.release
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.data[key] = value
	return nil
}

func newMemory(t *testing.T) *MemoryBackend {
	t.Helper()
	b, err := NewMemoryBackend(nil)
	require.NoError(t, err)
	return b
}

func TestMirror_DefaultWhenAbsent(t *testing.T) {
	m := New(context.Background(), newMemory(t), "prefs", prefs{PageSize: 20})
	assert.Equal(t, prefs{PageSize: 20}, m.Get())
	assert.Equal(t, "prefs", m.Key())
}

func TestMirror_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := newMemory(t)

	m := New(ctx, backend, "prefs", prefs{PageSize: 20})
	require.NoError(t, m.Set(ctx, prefs{PageSize: 50, Theme: "dark"}))

	raw, ok, err := backend.Get(ctx, "prefs")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"pageSize":50,"theme":"dark"}`, string(raw))

	reloaded := New(ctx, backend, "prefs", prefs{})
	assert.Equal(t, prefs{PageSize: 50, Theme: "dark"}, reloaded.Get())
}

func TestMirror_Fallbacks(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		stored string
	}{
		{"corrupt json", `{"pageSize":`},
		{"json null", `null`},
		{"wrong shape", `[1,2,3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newMemory(t)
			require.NoError(t, backend.Set(ctx, "prefs", []byte(tt.stored)))

			m := New(ctx, backend, "prefs", prefs{PageSize: 20})
			assert.Equal(t, prefs{PageSize: 20}, m.Get())
		})
	}
}

func TestMirror_BackendReadError(t *testing.T) {
	m := New(context.Background(), failingBackend{getErr: stderrors.New("boom")}, "k", 7)
	assert.Equal(t, 7, m.Get())
}

func TestMirror_WriteErrorKeepsValue(t *testing.T) {
	ctx := context.Background()
	m := New(ctx, failingBackend{setErr: stderrors.New("down")}, "k", 1)

	err := m.Set(ctx, 2)
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.Equal(t, 2, m.Get())
}

func TestMirror_UpdateAndSubscribe(t *testing.T) {
	ctx := context.Background()
	m := New(ctx, newMemory(t), "counter", 0)

	var seen []int
	cancel := m.Subscribe(func(v int) { seen = append(seen, v) })

	require.NoError(t, m.Update(ctx, func(v int) int { return v + 1 }))
	require.NoError(t, m.Update(ctx, func(v int) int { return v + 1 }))
	cancel()
	require.NoError(t, m.Update(ctx, func(v int) int { return v + 1 }))

	assert.Equal(t, []int{1, 2}, seen)
	assert.Equal(t, 3, m.Get())
}

func TestMirror_UnmarshalableValue(t *testing.T) {
	ctx := context.Background()
	m := New[any](ctx, newMemory(t), "k", nil)

	err := m.Set(ctx, make(chan int))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.Nil(t, m.Get())
}

type fakeKV struct {
	data map[string][]byte
	err  error
}

func (f *fakeKV) Get(_ context.Context, key string) (*natsclient.KVEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.data[key]
	if !ok {
		return nil, natsclient.ErrKVKeyNotFound
	}
	return &natsclient.KVEntry{Key: key, Value: v, Revision: 1}, nil
}

func (f *fakeKV) Put(_ context.Context, key string, value []byte) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.data[key] = value
	return 1, nil
}

func TestKVBackend(t *testing.T) {
	ctx := context.Background()
	kv := &fakeKV{data: map[string][]byte{}}
	backend, err := newKVBackend(kv)
	require.NoError(t, err)
	defer backend.Close()

	_, ok, err := backend.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Set(ctx, "k", []byte(`"v"`)))
	assert.Equal(t, `"v"`, string(kv.data["k"]))
	raw, ok, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"v"`, string(raw))

	kv.err = stderrors.New("connection reset")
	_, _, err = backend.Get(ctx, "k")
	assert.True(t, errors.IsTransient(err))
	assert.True(t, errors.IsTransient(backend.Set(ctx, "k", nil)))
}

func TestKVBackend_Compression(t *testing.T) {
	ctx := context.Background()
	kv := &fakeKV{data: map[string][]byte{}}
	backend, err := newKVBackend(kv, WithCompression())
	require.NoError(t, err)
	defer backend.Close()

	value := []byte(`{"page_size":100,"theme":"light","filter":"` + strings.Repeat("error ", 64) + `"}`)
	require.NoError(t, backend.Set(ctx, "prefs", value))

	stored := kv.data["prefs"]
	assert.True(t, bytes.HasPrefix(stored, zstdMagic))
	assert.Less(t, len(stored), len(value))

	raw, ok, err := backend.Get(ctx, "prefs")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, value, raw)

	// Plain values written before compression was enabled still read back.
	kv.data["old"] = []byte(`"plain"`)
	raw, ok, err = backend.Get(ctx, "old")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"plain"`, string(raw))

	kv.data["bad"] = append(append([]byte(nil), zstdMagic...), 0x00, 0x01)
	_, _, err = backend.Get(ctx, "bad")
	assert.True(t, errors.IsInvalid(err))
}

func TestNewKVBackend_Validation(t *testing.T) {
	_, err := NewKVBackend(context.Background(), nil, "b")
	assert.True(t, errors.IsInvalid(err))

	client, err := natsclient.NewClient("nats://localhost:4222")
	require.NoError(t, err)
	_, err = NewKVBackend(context.Background(), client, "")
	assert.True(t, errors.IsInvalid(err))

	_, err = NewKVBackend(context.Background(), client, "b")
	assert.True(t, errors.IsTransient(err))
}

func TestMirror_ConcurrentUpdatesPersistInOrder(t *testing.T) {
	ctx := context.Background()
	backend := &gatedBackend{
		data:    map[string][]byte{},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	m := New(ctx, backend, "n", 0)

	first := make(chan error, 1)
	go func() { first <- m.Set(ctx, 1) }()
	<-backend.entered

	second := make(chan error, 1)
	go func() { second <- m.Set(ctx, 2) }()

	select {
	case <-second:
		t.Fatal("second write finished while the first was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(backend.release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	assert.Equal(t, 2, m.Get())
	raw, ok, err := backend.Get(ctx, "n")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", string(raw))

	reloaded := New(ctx, backend, "n", 0)
	assert.Equal(t, 2, reloaded.Get())
}
