package buffer

import (
	"sync/atomic"
)

// Statistics tracks buffer activity. Always collected, independent of metrics.
type Statistics struct {
	writes  atomic.Int64
	drops   atomic.Int64
	size    atomic.Int64
	maxSize atomic.Int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{}
}

func (s *Statistics) write(size int) {
	s.writes.Add(1)
	s.setSize(size)
}

func (s *Statistics) read(size int) {
	s.setSize(size)
}

func (s *Statistics) drop() {
	s.drops.Add(1)
}

func (s *Statistics) setSize(size int) {
	s.size.Store(int64(size))
	for {
		high := s.maxSize.Load()
		if int64(size) <= high || s.maxSize.CompareAndSwap(high, int64(size)) {
			return
		}
	}
}

// Writes returns the total number of accepted writes.
func (s *Statistics) Writes() int64 { return s.writes.Load() }

// Drops returns the number of items dropped by the overflow policy.
func (s *Statistics) Drops() int64 { return s.drops.Load() }

// CurrentSize returns the size after the last operation.
func (s *Statistics) CurrentSize() int64 { return s.size.Load() }

// MaxSize returns the high-water mark.
func (s *Statistics) MaxSize() int64 { return s.maxSize.Load() }
