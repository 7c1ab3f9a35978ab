package ingest

import (
	"log/slog"
	"time"

	"github.com/c360/logdash/metric"
)

// Defaults for New.
const (
	DefaultCapacity      = 500
	DefaultFlushInterval = 50 * time.Millisecond
)

// Option configures a Buffer.
type Option func(*options)

type options struct {
	capacity    int
	interval    time.Duration
	logger      *slog.Logger
	registry    *metric.MetricsRegistry
	metricsName string
}

// WithCapacity sets the maximum size of both the pending stage and the
// visible collection.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithFlushInterval sets the debounce window.
func WithFlushInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics exports buffer metrics to registry under name.
func WithMetrics(registry *metric.MetricsRegistry, name string) Option {
	return func(o *options) {
		o.registry = registry
		o.metricsName = name
	}
}
