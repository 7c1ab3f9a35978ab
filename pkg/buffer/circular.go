package buffer

import (
	"sync"

	"github.com/c360/logdash/errors"
)

type circularBuffer[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	size     int
	head     int // next write position
	tail     int // oldest item
	stats    *Statistics
	metrics  *bufferMetrics
	opts     *bufferOptions[T]
	closed   bool
}

func newCircularBuffer[T any](capacity int, opts *bufferOptions[T]) (*circularBuffer[T], error) {
	if capacity <= 0 {
		capacity = 1
	}

	var metrics *bufferMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newBufferMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "buffer", "newCircularBuffer", "metrics registration")
		}
	}

	return &circularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
		stats:    NewStatistics(),
		metrics:  metrics,
		opts:     opts,
	}, nil
}

// Write adds an item to the buffer according to the overflow policy.
func (cb *circularBuffer[T]) Write(item T) error {
	cb.mu.Lock()

	if cb.closed {
		cb.mu.Unlock()
		return errors.WrapInvalid(errors.ErrShuttingDown, "buffer", "Write", "buffer closed")
	}

	var dropped T
	haveDropped := false

	if cb.size == cb.capacity {
		cb.stats.drop()
		if cb.metrics != nil {
			cb.metrics.recordDrop()
		}

		if cb.opts.overflowPolicy == DropNewest {
			cb.mu.Unlock()
			if cb.opts.dropCallback != nil {
				cb.opts.dropCallback(item)
			}
			return nil
		}

		dropped, haveDropped = cb.items[cb.tail], true
		var zero T
		cb.items[cb.tail] = zero
		cb.tail = (cb.tail + 1) % cb.capacity
		cb.size--
	}

	cb.items[cb.head] = item
	cb.head = (cb.head + 1) % cb.capacity
	cb.size++

	cb.stats.write(cb.size)
	if cb.metrics != nil {
		cb.metrics.recordWrite(cb.size, cb.capacity)
	}
	cb.mu.Unlock()

	// Callback runs outside the lock so it may touch the buffer.
	if haveDropped && cb.opts.dropCallback != nil {
		cb.opts.dropCallback(dropped)
	}
	return nil
}

// ReadBatch removes up to max items, oldest first.
func (cb *circularBuffer[T]) ReadBatch(max int) []T {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	n := cb.size
	if max >= 0 && max < n {
		n = max
	}
	out := make([]T, 0, n)
	var zero T
	for i := 0; i < n; i++ {
		out = append(out, cb.items[cb.tail])
		cb.items[cb.tail] = zero
		cb.tail = (cb.tail + 1) % cb.capacity
	}
	cb.size -= n
	cb.afterRead()
	return out
}

// DrainNewestFirst removes every item and returns them newest first.
func (cb *circularBuffer[T]) DrainNewestFirst() []T {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	out := make([]T, cb.size)
	var zero T
	idx := cb.head
	for i := 0; i < cb.size; i++ {
		idx = (idx - 1 + cb.capacity) % cb.capacity
		out[i] = cb.items[idx]
		cb.items[idx] = zero
	}
	cb.size, cb.head, cb.tail = 0, 0, 0
	cb.afterRead()
	return out
}

func (cb *circularBuffer[T]) afterRead() {
	cb.stats.read(cb.size)
	if cb.metrics != nil {
		cb.metrics.updateSize(cb.size, cb.capacity)
	}
}

// Size returns the current number of items.
func (cb *circularBuffer[T]) Size() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.size
}

// Capacity returns the buffer capacity.
func (cb *circularBuffer[T]) Capacity() int {
	return cb.capacity
}

// IsFull returns true if the buffer is at capacity.
func (cb *circularBuffer[T]) IsFull() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.size == cb.capacity
}

// Clear removes all items without counting them as drops.
func (cb *circularBuffer[T]) Clear() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	var zero T
	for i := range cb.items {
		cb.items[i] = zero
	}
	cb.size, cb.head, cb.tail = 0, 0, 0
	cb.stats.read(0)
	if cb.metrics != nil {
		cb.metrics.updateSize(0, cb.capacity)
	}
}

// Stats returns buffer statistics.
func (cb *circularBuffer[T]) Stats() *Statistics {
	return cb.stats
}

// Close rejects further writes. Items already buffered stay readable.
func (cb *circularBuffer[T]) Close() error {
	cb.mu.Lock()
	cb.closed = true
	cb.mu.Unlock()
	return nil
}
