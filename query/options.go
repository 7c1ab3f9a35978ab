package query

import (
	"log/slog"
	"time"

	"github.com/c360/logdash/metric"
	"github.com/c360/logdash/timerange"
)

// DefaultLimit is the page size used when WithLimit is not given.
const DefaultLimit = 20

// Option configures a Store.
type Option func(*options)

type options struct {
	params      Params
	recorder    Recorder
	logger      *slog.Logger
	now         func() time.Time
	registry    *metric.MetricsRegistry
	metricsName string
}

// WithQuery sets the initial query text.
func WithQuery(q string) Option {
	return func(o *options) { o.params.Query = q }
}

// WithLimit sets the initial page size.
func WithLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.params.Limit = n
		}
	}
}

// WithPage sets the initial page.
func WithPage(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.params.Page = n
		}
	}
}

// WithTimeRange sets the initial time range.
func WithTimeRange(r timerange.Range) Option {
	return func(o *options) { o.params.TimeRange = &r }
}

// WithHistory records every settled query.
func WithHistory(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source used to resolve live ranges.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMetrics exports store metrics to registry under name.
func WithMetrics(registry *metric.MetricsRegistry, name string) Option {
	return func(o *options) {
		o.registry = registry
		o.metricsName = name
	}
}
