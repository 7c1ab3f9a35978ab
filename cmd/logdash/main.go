// Command logdash follows a live log stream and runs paginated queries
// against a log query endpoint.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/c360/logdash/config"
)

const appName = "logdash"

// Build information, set with -ldflags.
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	cli, err := parseFlags(fs, args)
	if err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if cli.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
		return nil
	}
	if cli.ShowHelp {
		fs.Usage()
		return nil
	}
	if err := validateFlags(cli); err != nil {
		return err
	}

	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	if cli.Validate {
		_, _ = fmt.Fprintln(stdout, "Configuration valid")
		return nil
	}

	logger := setupLogger(stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	logger.Debug("Configuration loaded", "command", cli.Command, "storage", cfg.Storage.Backend)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, logger, stdout)
	if err != nil {
		return err
	}
	defer a.close(cli.ShutdownTimeout)

	switch cli.Command {
	case "tail":
		return a.tail(ctx, cli.Args)
	case "query":
		return a.query(ctx, cli.Args)
	default:
		return a.historyCmd(ctx, cli.Args)
	}
}

// loadConfig layers the config file and environment, then applies flag
// overrides.
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	if cli.ConfigPath != "" {
		loader.AddLayer(cli.ConfigPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Log.Format = cli.LogFormat
	}
	if cli.MetricsAddr != "" {
		cfg.Metrics.Addr = cli.MetricsAddr
		cfg.Metrics.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
