package cache

import (
	"sync/atomic"
)

// Statistics tracks cache activity.
type Statistics struct {
	hits    atomic.Int64
	misses  atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
	size    atomic.Int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{}
}

func (s *Statistics) hit()  { s.hits.Add(1) }
func (s *Statistics) miss() { s.misses.Add(1) }

func (s *Statistics) set(size int) {
	s.sets.Add(1)
	s.size.Store(int64(size))
}

func (s *Statistics) remove(size int) {
	s.deletes.Add(1)
	s.size.Store(int64(size))
}

// Hits returns the number of successful lookups.
func (s *Statistics) Hits() int64 { return s.hits.Load() }

// Misses returns the number of failed lookups.
func (s *Statistics) Misses() int64 { return s.misses.Load() }

// Sets returns the number of writes.
func (s *Statistics) Sets() int64 { return s.sets.Load() }

// Deletes returns the number of deletes and clears.
func (s *Statistics) Deletes() int64 { return s.deletes.Load() }

// CurrentSize returns the entry count after the last write.
func (s *Statistics) CurrentSize() int64 { return s.size.Load() }

// HitRatio returns hits / (hits + misses), or 0 with no lookups.
func (s *Statistics) HitRatio() float64 {
	hits, misses := s.Hits(), s.Misses()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}
