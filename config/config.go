package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/c360/logdash/errors"
	"github.com/c360/logdash/timerange"
)

// Duration is a time.Duration that reads and writes as a string.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts duration strings or integer nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := parseDurationWithDays(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid duration %s", string(data))
	}
	*d = Duration(n)
	return nil
}

// parseDurationWithDays extends time.ParseDuration with a "d" suffix.
func parseDurationWithDays(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// Config is the complete logdash configuration.
type Config struct {
	Stream  StreamConfig  `json:"stream"`
	Ingest  IngestConfig  `json:"ingest"`
	Query   QueryConfig   `json:"query"`
	Storage StorageConfig `json:"storage"`
	Metrics MetricsConfig `json:"metrics"`
	Log     LogConfig     `json:"log"`
}

// StreamConfig configures the live stream client.
type StreamConfig struct {
	URL            string   `json:"url"`
	BackoffFloor   Duration `json:"backoff_floor"`
	BackoffCeiling Duration `json:"backoff_ceiling"`
}

// IngestConfig configures the ingest buffer and the live view pager.
type IngestConfig struct {
	Capacity      int      `json:"capacity"`
	FlushInterval Duration `json:"flush_interval"`
	PageSize      int      `json:"page_size"`
}

// QueryConfig configures the paginated query store.
type QueryConfig struct {
	Endpoint  string   `json:"endpoint"`
	Limit     int      `json:"limit"`
	TimeRange string   `json:"time_range"`
	Timeout   Duration `json:"timeout"`
}

// Storage backends.
const (
	StorageMemory = "memory"
	StorageNATS   = "nats"
)

// StorageConfig selects where durable state such as query history lives.
type StorageConfig struct {
	Backend  string `json:"backend"`
	NATSURL  string `json:"nats_url"`
	Bucket   string `json:"bucket"`
	Compress bool   `json:"compress"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
	Path    string `json:"path"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Stream: StreamConfig{
			URL:            "ws://localhost:8080/stream",
			BackoffFloor:   Duration(time.Second),
			BackoffCeiling: Duration(10 * time.Second),
		},
		Ingest: IngestConfig{
			Capacity:      500,
			FlushInterval: Duration(50 * time.Millisecond),
			PageSize:      50,
		},
		Query: QueryConfig{
			Endpoint:  "http://localhost:8080/query",
			Limit:     20,
			TimeRange: "15m",
			Timeout:   Duration(30 * time.Second),
		},
		Storage: StorageConfig{
			Backend: StorageMemory,
			NATSURL: "nats://localhost:4222",
			Bucket:  "logdash",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for values no component accepts.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if err := validateURL(c.Stream.URL, "ws", "wss"); err != nil {
		add("stream.url: %v", err)
	}
	if c.Stream.BackoffFloor <= 0 {
		add("stream.backoff_floor must be positive")
	}
	if c.Stream.BackoffCeiling < c.Stream.BackoffFloor {
		add("stream.backoff_ceiling must not be below backoff_floor")
	}

	if c.Ingest.Capacity <= 0 {
		add("ingest.capacity must be positive")
	}
	if c.Ingest.FlushInterval <= 0 {
		add("ingest.flush_interval must be positive")
	}
	if c.Ingest.PageSize <= 0 {
		add("ingest.page_size must be positive")
	}

	if err := validateURL(c.Query.Endpoint, "http", "https"); err != nil {
		add("query.endpoint: %v", err)
	}
	if c.Query.Limit <= 0 {
		add("query.limit must be positive")
	}
	if c.Query.TimeRange != "" {
		if _, ok := timerange.Preset(c.Query.TimeRange, time.Now()); !ok {
			add("query.time_range: unknown preset %q", c.Query.TimeRange)
		}
	}

	switch c.Storage.Backend {
	case StorageMemory:
	case StorageNATS:
		if err := validateURL(c.Storage.NATSURL, "nats", "tls"); err != nil {
			add("storage.nats_url: %v", err)
		}
		if c.Storage.Bucket == "" {
			add("storage.bucket is required for the nats backend")
		}
	default:
		add("storage.backend must be %q or %q", StorageMemory, StorageNATS)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		add("metrics.addr is required when metrics are enabled")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("log.level: unknown level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		add("log.format must be json or text")
	}

	if len(problems) > 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(problems, "; ")),
			"Config", "Validate", "validate configuration")
	}
	return nil
}

func validateURL(raw string, schemes ...string) error {
	if raw == "" {
		return stderrors.New("empty URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("scheme must be one of %s", strings.Join(schemes, ", "))
}

// String renders the configuration as indented JSON.
func (c *Config) String() string {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
