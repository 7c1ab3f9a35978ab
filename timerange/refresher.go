package timerange

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Refresher re-resolves a live range on its refresh interval and hands the
// result to apply. It holds at most one ticker.
type Refresher struct {
	apply  func(Range)
	now    func() time.Time
	logger *slog.Logger

	mu      sync.Mutex
	current Range
	ticker  *time.Ticker
	reset   chan struct{}
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithClock overrides the time source.
func WithClock(now func() time.Time) RefresherOption {
	return func(r *Refresher) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RefresherOption {
	return func(r *Refresher) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRefresher creates a Refresher that calls apply with each re-resolved
// range.
func NewRefresher(apply func(Range), opts ...RefresherOption) *Refresher {
	r := &Refresher{
		apply:  apply,
		now:    time.Now,
		logger: slog.Default(),
		reset:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "timerange")
	return r
}

// Set replaces the tracked range. Ranges that do not slide or have no
// refresh interval stop the ticker.
func (r *Refresher) Set(rg Range) {
	r.mu.Lock()
	r.current = rg
	if r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
	}
	if rg.Sliding() && rg.Refresh > 0 {
		r.ticker = time.NewTicker(rg.Refresh)
	}
	r.mu.Unlock()

	select {
	case r.reset <- struct{}{}:
	default:
	}
}

// Current returns the tracked range.
func (r *Refresher) Current() Range {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Run drives the ticker until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	defer func() {
		r.mu.Lock()
		if r.ticker != nil {
			r.ticker.Stop()
			r.ticker = nil
		}
		r.mu.Unlock()
	}()

	for {
		r.mu.Lock()
		var tick <-chan time.Time
		if r.ticker != nil {
			tick = r.ticker.C
		}
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil
		case <-r.reset:
		case <-tick:
			r.mu.Lock()
			resolved := r.current.Resolve(r.now())
			r.current = resolved
			r.mu.Unlock()

			r.logger.Debug("Refreshing live range", "range", resolved.String())
			r.apply(resolved)
		}
	}
}
