package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/c360/logdash/errors"
	"github.com/c360/logdash/timerange"
)

// Store owns the parameters and result set of a paginated query. Setters
// called before Start only update parameters; Start issues the first fetch.
//
// Subscribers are called outside the store's state lock but in the order
// changes happen; they must not call back into the store synchronously.
type Store[T any] struct {
	fetcher  Fetcher[T]
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
	metrics  *queryMetrics

	notifyMu sync.Mutex

	mu      sync.Mutex
	params  Params
	result  Result[T]
	loading bool
	token   uint64
	started bool
	closed  bool
	subs    map[int]func(State[T])
	nextSub int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStore creates a store backed by fetcher.
func NewStore[T any](fetcher Fetcher[T], opts ...Option) (*Store[T], error) {
	if fetcher == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Store", "NewStore", "fetcher cannot be nil")
	}

	o := &options{
		params: Params{Limit: DefaultLimit},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	s := &Store[T]{
		fetcher:  fetcher,
		recorder: o.recorder,
		logger:   o.logger.With("component", "query"),
		now:      o.now,
		params:   o.params,
		result:   Result[T]{Meta: Meta{TotalPages: 1}},
		subs:     make(map[int]func(State[T])),
	}

	if o.registry != nil {
		m, err := newQueryMetrics(o.registry, o.metricsName)
		if err != nil {
			return nil, errors.WrapTransient(err, "Store", "NewStore", "register metrics")
		}
		s.metrics = m
	}
	return s, nil
}

// Start issues the first fetch. Fetches are cancelled when ctx is done or
// Close is called.
func (s *Store[T]) Start(ctx context.Context) error {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.WrapFatal(errors.ErrShuttingDown, "Store", "Start", "start after close")
	}
	if s.started {
		s.mu.Unlock()
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Store", "Start", "start")
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.issueLocked()
	s.publishLocked()
	return nil
}

// Close cancels in-flight fetches and waits for them to return. Results
// settling after Close are discarded.
func (s *Store[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.loading = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// SetQuery replaces the query text and resets to the first page.
func (s *Store[T]) SetQuery(q string) {
	s.mutate(func(p *Params) bool {
		if p.Query == q {
			return false
		}
		p.Query = q
		p.Page = 0
		return true
	})
}

// SetLimit replaces the page size and resets to the first page.
func (s *Store[T]) SetLimit(n int) error {
	if n <= 0 {
		return errors.WrapInvalid(fmt.Errorf("%w: limit must be positive", errors.ErrInvalidData), "Store", "SetLimit", "validate limit")
	}
	s.mutate(func(p *Params) bool {
		if p.Limit == n {
			return false
		}
		p.Limit = n
		p.Page = 0
		return true
	})
	return nil
}

// SetTimeRange replaces the time range and resets to the first page. A nil
// range removes the time bound.
func (s *Store[T]) SetTimeRange(r *timerange.Range) {
	s.mutate(func(p *Params) bool {
		if p.equalRange(r) {
			return false
		}
		if r == nil {
			p.TimeRange = nil
		} else {
			rc := *r
			p.TimeRange = &rc
		}
		p.Page = 0
		return true
	})
}

// SetPage jumps to page n.
func (s *Store[T]) SetPage(n int) error {
	if n < 0 {
		return errors.WrapInvalid(fmt.Errorf("%w: page must not be negative", errors.ErrInvalidData), "Store", "SetPage", "validate page")
	}
	s.mutate(func(p *Params) bool {
		if p.Page == n {
			return false
		}
		p.Page = n
		return true
	})
	return nil
}

// NextPage advances one page. It does not consult Meta.HasNextPage.
func (s *Store[T]) NextPage() {
	s.mutate(func(p *Params) bool {
		p.Page++
		return true
	})
}

// PrevPage goes back one page, stopping at the first.
func (s *Store[T]) PrevPage() {
	s.mutate(func(p *Params) bool {
		if p.Page == 0 {
			return false
		}
		p.Page--
		return true
	})
}

// Refresh re-issues the current query.
func (s *Store[T]) Refresh() {
	s.mutate(func(*Params) bool { return true })
}

// ClearResults drops the published results and error.
func (s *Store[T]) ClearResults() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.result = Result[T]{Meta: Meta{TotalPages: 1}, Params: s.params}
	s.publishLocked()
}

// Params returns the current parameters.
func (s *Store[T]) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Result returns the latest published result.
func (s *Store[T]) Result() Result[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Loading reports whether the latest issued fetch is still outstanding.
func (s *Store[T]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// State returns a snapshot of parameters, result and loading flag.
func (s *Store[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Subscribe registers fn for every state change and returns a function
// that removes it.
func (s *Store[T]) Subscribe(fn func(State[T])) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store[T]) mutate(change func(*Params) bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.closed || !change(&s.params) {
		s.mu.Unlock()
		return
	}
	if s.started {
		s.issueLocked()
	}
	s.publishLocked()
}

// issueLocked starts a fetch for the current parameters. Caller holds mu.
func (s *Store[T]) issueLocked() {
	s.token++
	token := s.token
	p := s.params
	if p.TimeRange != nil {
		resolved := p.TimeRange.Resolve(s.now())
		p.TimeRange = &resolved
	}
	s.loading = true

	s.wg.Add(1)
	go s.fetch(s.ctx, token, p)
}

func (s *Store[T]) fetch(ctx context.Context, token uint64, p Params) {
	defer s.wg.Done()
	if s.metrics != nil {
		s.metrics.inFlight.Inc()
		defer s.metrics.inFlight.Dec()
	}

	res := s.fetcher.Fetch(ctx, p)
	res.Params = p
	s.settle(ctx, token, res)
}

func (s *Store[T]) settle(ctx context.Context, token uint64, res Result[T]) {
	if !s.publishResult(token, res) {
		return
	}
	if s.recorder != nil && strings.TrimSpace(res.Params.Query) != "" {
		if err := s.recorder.Record(ctx, res.Params.Query, res.OK()); err != nil {
			s.logger.Warn("Failed to record query history", "error", err)
		}
	}
}

// publishResult stores res if token is still current and notifies
// subscribers. It reports whether res was published.
func (s *Store[T]) publishResult(token uint64, res Result[T]) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.closed || token != s.token {
		s.mu.Unlock()
		s.logger.Debug("Discarding superseded query result", "query", res.Params.Query, "page", res.Params.Page)
		if s.metrics != nil {
			s.metrics.fetches.WithLabelValues("stale").Inc()
		}
		return false
	}

	if !res.OK() {
		res.Results = s.result.Results
		res.Meta = s.result.Meta
	}
	s.result = res
	s.loading = false
	state := s.stateLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	if s.metrics != nil {
		if res.OK() {
			s.metrics.fetches.WithLabelValues("ok").Inc()
		} else {
			s.metrics.fetches.WithLabelValues("error").Inc()
		}
		s.metrics.duration.Observe(res.Duration.Seconds())
	}
	if !res.OK() {
		s.logger.Warn("Query failed", "query", res.Params.Query, "error", res.Error)
	}

	for _, fn := range subs {
		fn(state)
	}
	return true
}

// publishLocked snapshots state, releases mu and notifies subscribers.
// Caller holds mu and notifyMu.
func (s *Store[T]) publishLocked() {
	state := s.stateLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()
	for _, fn := range subs {
		fn(state)
	}
}

func (s *Store[T]) stateLocked() State[T] {
	res := s.result
	if res.Results != nil {
		res.Results = append([]T(nil), res.Results...)
	}
	return State[T]{Params: s.params, Result: res, Loading: s.loading}
}

func (s *Store[T]) subscribersLocked() []func(State[T]) {
	subs := make([]func(State[T]), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}
