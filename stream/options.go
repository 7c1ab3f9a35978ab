package stream

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/c360/logdash/metric"
)

// Default reconnect bounds.
const (
	DefaultBackoffFloor   = time.Second
	DefaultBackoffCeiling = 10 * time.Second
)

// Option configures a Client.
type Option func(*config)

type config struct {
	floor       time.Duration
	ceiling     time.Duration
	dialer      *websocket.Dialer
	logger      *slog.Logger
	registry    *metric.MetricsRegistry
	metricsName string
	decodeLimit rate.Limit
	decodeBurst int
}

func defaultConfig() *config {
	return &config{
		floor:       DefaultBackoffFloor,
		ceiling:     DefaultBackoffCeiling,
		dialer:      &websocket.Dialer{HandshakeTimeout: 45 * time.Second},
		logger:      slog.Default(),
		decodeLimit: rate.Every(time.Second),
		decodeBurst: 5,
	}
}

// WithBackoff sets the reconnect delay floor and ceiling.
func WithBackoff(floor, ceiling time.Duration) Option {
	return func(c *config) {
		c.floor = floor
		c.ceiling = ceiling
	}
}

// WithDialer replaces the WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *config) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics exports client metrics to registry under name.
func WithMetrics(registry *metric.MetricsRegistry, name string) Option {
	return func(c *config) {
		c.registry = registry
		c.metricsName = name
	}
}

// WithDecodeLogRate limits how often decode failures are logged.
// Failures are always counted.
func WithDecodeLogRate(limit rate.Limit, burst int) Option {
	return func(c *config) {
		c.decodeLimit = limit
		c.decodeBurst = burst
	}
}
