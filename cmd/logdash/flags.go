package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds global command-line configuration.
type CLIConfig struct {
	ConfigPath      string
	LogLevel        string
	LogFormat       string
	MetricsAddr     string
	ShutdownTimeout time.Duration
	ShowVersion     bool
	ShowHelp        bool
	Validate        bool

	Command string
	Args    []string
}

func parseFlags(fs *flag.FlagSet, args []string) (*CLIConfig, error) {
	cfg := &CLIConfig{}

	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("LOGDASH_CONFIG", ""),
		"Path to a JSON configuration file (env: LOGDASH_CONFIG)")
	fs.StringVar(&cfg.ConfigPath, "c",
		getEnv("LOGDASH_CONFIG", ""),
		"Path to a JSON configuration file (env: LOGDASH_CONFIG)")
	fs.StringVar(&cfg.LogLevel, "log-level", "",
		"Log level: debug, info, warn, error (env: LOGDASH_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", "",
		"Log format: json, text (env: LOGDASH_LOG_FORMAT)")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "",
		"Serve /metrics and /health on this address (env: LOGDASH_METRICS_ADDR)")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("LOGDASH_SHUTDOWN_TIMEOUT", 10*time.Second),
		"Graceful shutdown timeout (env: LOGDASH_SHUTDOWN_TIMEOUT)")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	fs.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	fs.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	fs.Usage = func() { printDetailedHelp(fs) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) > 0 {
		cfg.Command = rest[0]
		cfg.Args = rest[1:]
	}
	return cfg, nil
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp || cfg.Validate {
		return nil
	}
	switch cfg.Command {
	case "tail", "query", "history":
		return nil
	case "":
		return fmt.Errorf("missing command: expected tail, query or history")
	default:
		return fmt.Errorf("unknown command: %s", cfg.Command)
	}
}

func printDetailedHelp(fs *flag.FlagSet) {
	out := fs.Output()
	_, _ = fmt.Fprintf(out, `%s - live log tail and paginated log queries

Usage: %s [options] <command> [command options]

Commands:
  tail      Follow the live log stream
  query     Run a paginated query against the query endpoint
  history   Show or clear recent queries

Options:
`, appName, os.Args[0])
	fs.PrintDefaults()
	_, _ = fmt.Fprintf(out, `
Examples:
  # Follow errors on the live stream
  %[1]s tail --filter error

  # Second page of the last hour, 50 rows per page
  %[1]s query --q 'level:error' --range 1h --page 1 --limit 50

  # Re-run a live query on the range's refresh interval
  %[1]s query --q 'level:error' --range 4h --watch

  # Use NATS KV for query history
  export LOGDASH_STORAGE_BACKEND=nats
  %[1]s history

Version: %[2]s
Build: %[3]s
`, os.Args[0], Version, BuildTime)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
