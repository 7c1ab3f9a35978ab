package main

import (
	"bytes"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/logdash/history"
	"github.com/c360/logdash/query"
	"github.com/c360/logdash/types"
)

func TestParseFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cli, err := parseFlags(fs, []string{"--log-level", "debug", "query", "--q", "x"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cli.LogLevel)
	assert.Equal(t, "query", cli.Command)
	assert.Equal(t, []string{"--q", "x"}, cli.Args)
	assert.NoError(t, validateFlags(cli))

	assert.Error(t, validateFlags(&CLIConfig{}))
	assert.Error(t, validateFlags(&CLIConfig{Command: "graph"}))
	assert.NoError(t, validateFlags(&CLIConfig{ShowVersion: true}))
}

func TestRunVersionAndValidate(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, run([]string{"--version"}, &out, &errOut))
	assert.Contains(t, out.String(), Version)

	path := filepath.Join(t.TempDir(), "logdash.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"query": {"limit": 10}}`), 0o600))

	out.Reset()
	require.NoError(t, run([]string{"--config", path, "--validate"}, &out, &errOut))
	assert.Contains(t, out.String(), "Configuration valid")

	require.NoError(t, os.WriteFile(path, []byte(`{"query": {"limit": 0}}`), 0o600))
	assert.Error(t, run([]string{"--config", path, "--validate"}, &out, &errOut))
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	cfg, err := loadConfig(&CLIConfig{LogLevel: "warn", LogFormat: "json", MetricsAddr: ":9999"})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9999", cfg.Metrics.Addr)
}

func TestParseRange(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	rg, err := parseRange("none", "", "", now)
	require.NoError(t, err)
	assert.Nil(t, rg)

	rg, err = parseRange("1h", "", "", now)
	require.NoError(t, err)
	require.NotNil(t, rg)
	assert.Equal(t, now.Add(-time.Hour), rg.From)
	assert.Equal(t, 30*time.Second, rg.Refresh)

	rg, err = parseRange("1h", "2025-05-01T10:00:00Z", "2025-05-01T11:00:00Z", now)
	require.NoError(t, err)
	assert.False(t, rg.Live)
	assert.Equal(t, time.Hour, rg.To.Sub(rg.From))

	_, err = parseRange("2w", "", "", now)
	assert.Error(t, err)
	_, err = parseRange("", "2025-05-01T11:00:00Z", "2025-05-01T10:00:00Z", now)
	assert.Error(t, err)
	_, err = parseRange("", "yesterday", "", now)
	assert.Error(t, err)
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, query.Result[types.LogEntry]{
		Results: []types.LogEntry{{
			CreatedAt: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
			Level:     "error",
			Message:   "disk full",
			TraceID:   "t-1",
		}},
		Meta:     query.Meta{HasNextPage: true, TotalPages: 3},
		Duration: 12 * time.Millisecond,
	})
	out := buf.String()
	assert.Contains(t, out, "# page 1/3, 1 results in 12ms")
	assert.Contains(t, out, "2025-05-01T12:00:00Z ERROR disk full trace=t-1")
	assert.Contains(t, out, "--page 1")

	buf.Reset()
	printResult(&buf, query.Result[types.LogEntry]{Error: "bad query"})
	assert.Equal(t, "error: bad query\n", buf.String())
}

func TestPrintHistory(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printHistory(&buf, nil, now)
	assert.Equal(t, "No recent queries\n", buf.String())

	buf.Reset()
	printHistory(&buf, []history.Entry{
		{Query: "level:error", OK: true, Timestamp: now.Add(-5 * time.Minute).UnixMilli()},
		{Query: "bad(", OK: false, Timestamp: now.Add(-2 * time.Hour).UnixMilli()},
	}, now)
	out := buf.String()
	assert.Contains(t, out, "5 minutes ago")
	assert.Contains(t, out, "level:error")
	assert.Contains(t, out, "fail")
	assert.Contains(t, out, "2 hours ago")
}
