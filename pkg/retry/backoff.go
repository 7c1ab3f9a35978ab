package retry

import (
	"sync"
	"time"
)

// Backoff hands out capped exponential delays. The Nth call to Next after a
// Reset returns min(floor * multiplier^(N-1), ceiling).
type Backoff struct {
	mu         sync.Mutex
	floor      time.Duration
	ceiling    time.Duration
	multiplier float64
	current    time.Duration
}

// NewBackoff creates a Backoff. Zero values fall back to 100ms, 5s and 2.0.
func NewBackoff(floor, ceiling time.Duration, multiplier float64) *Backoff {
	if floor <= 0 {
		floor = 100 * time.Millisecond
	}
	if ceiling <= 0 {
		ceiling = 5 * time.Second
	}
	if ceiling < floor {
		ceiling = floor
	}
	if multiplier < 1 {
		multiplier = 2.0
	}
	if multiplier > 1000 {
		multiplier = 1000
	}
	return &Backoff{
		floor:      floor,
		ceiling:    ceiling,
		multiplier: multiplier,
		current:    floor,
	}
}

// Next returns the delay to wait now and advances the delay for the next call.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	delay := b.current
	next := float64(b.current) * b.multiplier
	if next > float64(b.ceiling) {
		b.current = b.ceiling
	} else {
		b.current = time.Duration(next)
	}
	return delay
}

// Peek returns the delay the next call to Next will return.
func (b *Backoff) Peek() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Reset puts the delay back to the floor.
func (b *Backoff) Reset() {
	b.mu.Lock()
	b.current = b.floor
	b.mu.Unlock()
}

// Floor returns the minimum delay.
func (b *Backoff) Floor() time.Duration { return b.floor }

// Ceiling returns the maximum delay.
func (b *Backoff) Ceiling() time.Duration { return b.ceiling }
