package ingest

import (
	"log/slog"
	"sync"
	"time"

	"github.com/c360/logdash/errors"
	"github.com/c360/logdash/pkg/buffer"
)

// Update is delivered to subscribers after every change to the visible
// collection. Items is newest first and must not be modified.
type Update[T any] struct {
	Items   []T
	Added   int  // items prepended by this flush
	Cleared bool // set when the collection was cleared
}

// Buffer is a debounced, capacity-bounded, newest-first collection.
type Buffer[T any] struct {
	capacity int
	interval time.Duration
	logger   *slog.Logger
	metrics  *ingestMetrics
	pending  buffer.Buffer[T]

	notifyMu sync.Mutex // orders collection changes with their notifications
	mu       sync.Mutex
	items    []T
	paused   bool
	timer    *time.Timer
	closed   bool

	subscribers map[int]func(Update[T])
	nextID      int
}

// New creates a Buffer with capacity 500 and a 50ms flush window unless
// overridden.
func New[T any](opts ...Option) (*Buffer[T], error) {
	o := &options{
		capacity: DefaultCapacity,
		interval: DefaultFlushInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	b := &Buffer[T]{
		capacity:    o.capacity,
		interval:    o.interval,
		logger:      o.logger.With("component", "ingest"),
		items:       []T{},
		subscribers: make(map[int]func(Update[T])),
	}

	pendingOpts := []buffer.Option[T]{buffer.WithOverflowPolicy[T](buffer.DropOldest)}
	if o.registry != nil && o.metricsName != "" {
		m, err := newIngestMetrics(o.registry, o.metricsName)
		if err != nil {
			return nil, errors.WrapTransient(err, "Buffer", "New", "register metrics")
		}
		b.metrics = m
		pendingOpts = append(pendingOpts, buffer.WithMetrics[T](o.registry, o.metricsName+"_pending"))
	}

	pending, err := buffer.NewCircularBuffer(o.capacity, pendingOpts...)
	if err != nil {
		return nil, errors.WrapTransient(err, "Buffer", "New", "create pending stage")
	}
	b.pending = pending
	return b, nil
}

// Add queues item for the next flush. It never touches the visible
// collection directly. Items added after Close are discarded.
func (b *Buffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	_ = b.pending.Write(item)
	if b.timer == nil {
		b.timer = time.AfterFunc(b.interval, b.flush)
	}
}

// flush runs on the timer goroutine.
func (b *Buffer[T]) flush() {
	b.notifyMu.Lock()
	defer b.notifyMu.Unlock()

	b.mu.Lock()
	b.timer = nil
	if b.closed || b.paused {
		b.mu.Unlock()
		return
	}

	fresh := b.pending.DrainNewestFirst()
	if len(fresh) == 0 {
		b.mu.Unlock()
		return
	}

	size := min(len(fresh)+len(b.items), b.capacity)
	combined := make([]T, 0, size)
	combined = append(combined, fresh...)
	if len(combined) < size {
		combined = append(combined, b.items[:size-len(combined)]...)
	}
	b.items = combined
	subs := b.subscriberSnapshot()
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.flushes.Inc()
		b.metrics.flushed.Add(float64(len(fresh)))
		b.metrics.collection.Set(float64(len(combined)))
	}
	b.logger.Debug("Flushed pending items", "added", len(fresh), "size", len(combined))

	update := Update[T]{Items: combined, Added: len(fresh)}
	for _, fn := range subs {
		fn(update)
	}
}

// SetPaused toggles whether flushes apply to the visible collection.
// Buffering continues while paused. Unpausing with items pending arms a
// flush.
func (b *Buffer[T]) SetPaused(paused bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.paused = paused
	if !paused && !b.closed && b.timer == nil && b.pending.Size() > 0 {
		b.timer = time.AfterFunc(b.interval, b.flush)
	}
}

// Paused reports whether flushes are suspended.
func (b *Buffer[T]) Paused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}

// ClearCollection empties the visible collection. The pending stage is
// untouched.
func (b *Buffer[T]) ClearCollection() {
	b.notifyMu.Lock()
	defer b.notifyMu.Unlock()

	b.mu.Lock()
	b.items = []T{}
	subs := b.subscriberSnapshot()
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.clears.Inc()
		b.metrics.collection.Set(0)
	}

	update := Update[T]{Items: []T{}, Cleared: true}
	for _, fn := range subs {
		fn(update)
	}
}

// ClearPending discards items waiting for the next flush. The visible
// collection is untouched.
func (b *Buffer[T]) ClearPending() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending.Clear()
}

// Snapshot returns the visible collection, newest first. The slice must not
// be modified.
func (b *Buffer[T]) Snapshot() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.items
}

// Len returns the size of the visible collection.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// PendingSize returns the number of items waiting for a flush.
func (b *Buffer[T]) PendingSize() int {
	return b.pending.Size()
}

// IsPendingFull reports whether the pending stage is at capacity, meaning
// further adds are displacing older pending items.
func (b *Buffer[T]) IsPendingFull() bool {
	return b.pending.IsFull()
}

// Capacity returns the configured capacity.
func (b *Buffer[T]) Capacity() int {
	return b.capacity
}

// Dropped returns how many pending items were displaced by newer ones.
func (b *Buffer[T]) Dropped() int64 {
	return b.pending.Stats().Drops()
}

// Subscribe registers fn for every change to the visible collection. fn is
// not called with the current state. The returned function unsubscribes.
func (b *Buffer[T]) Subscribe(fn func(Update[T])) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}
}

// Close stops the flush timer and rejects further items. Pending items are
// discarded.
func (b *Buffer[T]) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	return b.pending.Close()
}

// subscriberSnapshot must be called with b.mu held.
func (b *Buffer[T]) subscriberSnapshot() []func(Update[T]) {
	out := make([]func(Update[T]), 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		out = append(out, fn)
	}
	return out
}
