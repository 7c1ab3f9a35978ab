package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/c360/logdash/config"
	"github.com/c360/logdash/errors"
	"github.com/c360/logdash/health"
	"github.com/c360/logdash/history"
	"github.com/c360/logdash/metric"
	"github.com/c360/logdash/natsclient"
	"github.com/c360/logdash/persist"
)

// app holds the dependencies shared by every command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer

	registry *metric.MetricsRegistry
	monitor  *health.Monitor
	nats     *natsclient.Client
	backend  persist.Backend
	history  *history.History
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		out:      out,
		registry: metric.NewMetricsRegistry(),
		monitor:  health.NewMonitor(),
	}

	backend, err := a.openStorage(ctx)
	if err != nil {
		a.close(5 * time.Second)
		return nil, err
	}
	a.backend = backend
	a.history = history.New(ctx, backend, logger)
	return a, nil
}

func (a *app) openStorage(ctx context.Context) (persist.Backend, error) {
	if a.cfg.Storage.Backend != config.StorageNATS {
		a.logger.Debug("Using in-process storage")
		return persist.NewMemoryBackend(a.registry)
	}

	nc, err := natsclient.NewClient(a.cfg.Storage.NATSURL,
		natsclient.WithName(appName),
		natsclient.WithLogger(a.logger),
		natsclient.WithHealthChangeCallback(func(healthy bool) {
			a.logger.Info("Storage connection changed", "healthy", healthy)
		}),
	)
	if err != nil {
		return nil, err
	}
	a.nats = nc

	if err := nc.Connect(ctx); err != nil {
		return nil, errors.WrapTransient(err, "app", "openStorage", "connect to NATS")
	}
	a.monitor.AddProbe("storage", func() health.Status {
		return health.FromNATS("storage", nc.Status())
	})

	var kvOpts []persist.KVOption
	if a.cfg.Storage.Compress {
		kvOpts = append(kvOpts, persist.WithCompression())
	}
	backend, err := persist.NewKVBackend(ctx, nc, a.cfg.Storage.Bucket, kvOpts...)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Using NATS storage", "bucket", a.cfg.Storage.Bucket, "compress", a.cfg.Storage.Compress)
	return backend, nil
}

// httpClient returns a client for the query endpoint.
func (a *app) httpClient() *http.Client {
	return &http.Client{Timeout: a.cfg.Query.Timeout.Std()}
}

// dialer returns the WebSocket dialer for the live stream. It honours the
// proxy environment variables.
func (a *app) dialer() *websocket.Dialer {
	d := *websocket.DefaultDialer
	return &d
}

// serve adds the metrics server to g when metrics are enabled.
func (a *app) serve(ctx context.Context, g *errgroup.Group) {
	if !a.cfg.Metrics.Enabled {
		return
	}
	srv := metric.NewServer(a.cfg.Metrics.Addr, a.cfg.Metrics.Path, a.registry, a.monitor.Check(appName))
	g.Go(func() error {
		a.logger.Info("Serving metrics", "addr", a.cfg.Metrics.Addr, "path", a.cfg.Metrics.Path)
		return srv.Start(ctx)
	})
}

func (a *app) close(timeout time.Duration) {
	if kv, ok := a.backend.(*persist.KVBackend); ok {
		if err := kv.Close(); err != nil {
			a.logger.Warn("Failed to close storage backend", "error", err)
		}
	}
	if a.nats == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := a.nats.Close(ctx); err != nil {
		a.logger.Warn("Failed to close NATS connection", "error", err)
	}
}
