package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/logdash/errors"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newTestLoader(env map[string]string) *Loader {
	l := NewLoader()
	l.getenv = func(k string) string { return env[k] }
	return l
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 500, cfg.Ingest.Capacity)
	assert.Equal(t, 50*time.Millisecond, cfg.Ingest.FlushInterval.Std())
	assert.Equal(t, 20, cfg.Query.Limit)
	assert.Equal(t, time.Second, cfg.Stream.BackoffFloor.Std())
	assert.Equal(t, 10*time.Second, cfg.Stream.BackoffCeiling.Std())
}

func TestLoaderLayers(t *testing.T) {
	base := writeConfig(t, "base.json", `{
		"stream": {"url": "wss://logs.example.com/stream", "backoff_ceiling": "30s"},
		"query": {"limit": 50},
		"storage": {"backend": "nats", "bucket": "dash"}
	}`)
	override := writeConfig(t, "override.json", `{
		"query": {"time_range": "1h"},
		"ingest": {"flush_interval": "100ms"},
		"log": {"format": "json"}
	}`)

	l := newTestLoader(nil)
	l.AddLayer(base)
	l.AddLayer(override)
	l.EnableValidation(true)

	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "wss://logs.example.com/stream", cfg.Stream.URL)
	assert.Equal(t, 30*time.Second, cfg.Stream.BackoffCeiling.Std())
	assert.Equal(t, time.Second, cfg.Stream.BackoffFloor.Std())
	assert.Equal(t, 50, cfg.Query.Limit)
	assert.Equal(t, "1h", cfg.Query.TimeRange)
	assert.Equal(t, "http://localhost:8080/query", cfg.Query.Endpoint)
	assert.Equal(t, 100*time.Millisecond, cfg.Ingest.FlushInterval.Std())
	assert.Equal(t, 500, cfg.Ingest.Capacity)
	assert.Equal(t, StorageNATS, cfg.Storage.Backend)
	assert.Equal(t, "dash", cfg.Storage.Bucket)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoaderEnvOverrides(t *testing.T) {
	l := newTestLoader(map[string]string{
		"LOGDASH_STREAM_URL":       "ws://tail:9000/stream",
		"LOGDASH_QUERY_LIMIT":      "75",
		"LOGDASH_METRICS_ENABLED":  "true",
		"LOGDASH_LOG_LEVEL":        "debug",
		"LOGDASH_STORAGE_COMPRESS": "1",
	})
	l.EnableValidation(true)

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "ws://tail:9000/stream", cfg.Stream.URL)
	assert.Equal(t, 75, cfg.Query.Limit)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Storage.Compress)

	l = newTestLoader(map[string]string{"LOGDASH_QUERY_LIMIT": "many"})
	_, err = l.Load()
	assert.True(t, errors.IsInvalid(err))
}

func TestLoaderRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.json") }},
		{"not json extension", func(t *testing.T) string { return writeConfig(t, "cfg.yaml", `{}`) }},
		{"traversal", func(*testing.T) string { return "../../etc/cfg.json" }},
		{"malformed", func(t *testing.T) string { return writeConfig(t, "bad.json", `{"stream": `) }},
		{"too deep", func(t *testing.T) string {
			return writeConfig(t, "deep.json", strings.Repeat("[", 101)+strings.Repeat("]", 101))
		}},
		{"bad duration", func(t *testing.T) string {
			return writeConfig(t, "dur.json", `{"stream": {"backoff_floor": "soon"}}`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLoader(nil)
			l.AddLayer(tt.path(t))
			_, err := l.Load()
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"stream scheme", func(c *Config) { c.Stream.URL = "http://x" }, "stream.url"},
		{"ceiling below floor", func(c *Config) { c.Stream.BackoffCeiling = Duration(time.Millisecond) }, "backoff_ceiling"},
		{"capacity", func(c *Config) { c.Ingest.Capacity = 0 }, "ingest.capacity"},
		{"limit", func(c *Config) { c.Query.Limit = -1 }, "query.limit"},
		{"preset", func(c *Config) { c.Query.TimeRange = "7d" }, "query.time_range"},
		{"backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"nats bucket", func(c *Config) {
			c.Storage.Backend = StorageNATS
			c.Storage.Bucket = ""
		}, "storage.bucket"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDurationJSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"3d"`), &d))
	assert.Equal(t, 72*time.Hour, d.Std())

	require.NoError(t, json.Unmarshal([]byte(`1500000000`), &d))
	assert.Equal(t, 1500*time.Millisecond, d.Std())

	out, err := json.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(out))
}
