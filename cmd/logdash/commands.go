package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/logdash/health"
	"github.com/c360/logdash/ingest"
	"github.com/c360/logdash/query"
	"github.com/c360/logdash/stream"
	"github.com/c360/logdash/timerange"
	"github.com/c360/logdash/types"
	"github.com/c360/logdash/view"
)

func (a *app) tail(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tail", flag.ContinueOnError)
	filter := fs.String("filter", getEnv("LOGDASH_TAIL_FILTER", ""), "Only print entries containing this text (env: LOGDASH_TAIL_FILTER)")
	pageSize := fs.Int("page-size", getEnvInt("LOGDASH_PAGE_SIZE", a.cfg.Ingest.PageSize), "Rows per page in the exit summary (env: LOGDASH_PAGE_SIZE)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	buf, err := ingest.New[types.LogEntry](
		ingest.WithCapacity(a.cfg.Ingest.Capacity),
		ingest.WithFlushInterval(a.cfg.Ingest.FlushInterval.Std()),
		ingest.WithLogger(a.logger),
		ingest.WithMetrics(a.registry, "tail"),
	)
	if err != nil {
		return err
	}
	defer buf.Close()

	live := view.New[types.LogEntry](buf)
	defer live.Close()
	live.SetFilter(*filter)

	buf.Subscribe(func(u ingest.Update[types.LogEntry]) {
		if u.Cleared || u.Added == 0 {
			return
		}
		fresh := u.Items[:min(u.Added, len(u.Items))]
		matched := view.Apply(fresh, live.Filter())
		for i := len(matched) - 1; i >= 0; i-- {
			printEntry(a.out, matched[i])
		}
	})

	sink := stream.SinkFunc[types.LogEntry](func(e types.LogEntry) {
		e.EnsureID()
		buf.Add(e)
	})
	client, err := stream.NewClient[types.LogEntry](a.cfg.Stream.URL, sink,
		stream.WithBackoff(a.cfg.Stream.BackoffFloor.Std(), a.cfg.Stream.BackoffCeiling.Std()),
		stream.WithDialer(a.dialer()),
		stream.WithLogger(a.logger),
		stream.WithMetrics(a.registry, "tail"),
	)
	if err != nil {
		return err
	}
	client.OnStateChange(func(s stream.State) {
		a.logger.Info("Stream state changed", "state", s.String())
	})
	a.monitor.AddProbe("stream", func() health.Status {
		return health.FromStream("stream", client.Stats())
	})

	g, gctx := errgroup.WithContext(ctx)
	a.serve(gctx, g)
	g.Go(func() error {
		if err := client.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		return client.Close()
	})
	err = g.Wait()

	page := view.NewPager[types.LogEntry](live, *pageSize).Current()
	stats := client.Stats()
	a.logger.Info("Tail stopped",
		"messages", stats.Messages,
		"decode_errors", stats.DecodeErrors,
		"buffered", buf.Len(),
		"matching", page.TotalItems,
		"pages", page.TotalPages,
		"dropped", buf.Dropped())
	return err
}

func (a *app) query(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	q := fs.String("q", "", "Query text")
	page := fs.Int("page", 0, "Zero-based page")
	limit := fs.Int("limit", a.cfg.Query.Limit, "Rows per page")
	rangeName := fs.String("range", a.cfg.Query.TimeRange, "Time range preset (5m, 15m, 30m, 1h, 4h, 12h, 24h, 3d) or \"none\"")
	from := fs.String("from", "", "Absolute range start, RFC 3339 (overrides --range)")
	to := fs.String("to", "", "Absolute range end, RFC 3339 (default now)")
	watch := fs.Bool("watch", getEnvBool("LOGDASH_QUERY_WATCH", false), "Keep running and re-query on the range's refresh interval (env: LOGDASH_QUERY_WATCH)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 && *q == "" {
		*q = strings.Join(fs.Args(), " ")
	}

	rg, err := parseRange(*rangeName, *from, *to, time.Now())
	if err != nil {
		return err
	}

	fetcher := query.NewHTTPFetcher[types.LogEntry](a.cfg.Query.Endpoint,
		query.WithHTTPClient(a.httpClient()),
		query.WithHTTPLogger(a.logger),
	)
	opts := []query.Option{
		query.WithQuery(*q),
		query.WithLimit(*limit),
		query.WithPage(*page),
		query.WithHistory(a.history),
		query.WithLogger(a.logger),
		query.WithMetrics(a.registry, "cli"),
	}
	if rg != nil {
		opts = append(opts, query.WithTimeRange(*rg))
	}
	store, err := query.NewStore[types.LogEntry](fetcher, opts...)
	if err != nil {
		return err
	}
	defer store.Close()
	a.monitor.AddProbe("query", func() health.Status {
		return health.FromQueryError("query", store.Result().Error)
	})

	if !*watch {
		return a.queryOnce(ctx, store)
	}

	store.Subscribe(func(s query.State[types.LogEntry]) {
		if !s.Loading {
			printResult(a.out, s.Result)
		}
	})

	refresher := timerange.NewRefresher(func(r timerange.Range) {
		store.SetTimeRange(&r)
	}, timerange.WithLogger(a.logger))
	if rg != nil {
		refresher.Set(*rg)
	}

	if err := store.Start(ctx); err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	a.serve(gctx, g)
	g.Go(func() error { return refresher.Run(gctx) })
	return g.Wait()
}

func (a *app) queryOnce(ctx context.Context, store *query.Store[types.LogEntry]) error {
	settled := make(chan query.State[types.LogEntry], 1)
	unsubscribe := store.Subscribe(func(s query.State[types.LogEntry]) {
		if s.Loading {
			return
		}
		select {
		case settled <- s:
		default:
		}
	})
	defer unsubscribe()

	if err := store.Start(ctx); err != nil {
		return err
	}

	select {
	case s := <-settled:
		printResult(a.out, s.Result)
		if !s.Result.OK() {
			return fmt.Errorf("query failed: %s", s.Result.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *app) historyCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	clearAll := fs.Bool("clear", false, "Remove all recorded queries")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *clearAll {
		if err := a.history.Clear(ctx); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(a.out, "Query history cleared")
		return nil
	}

	printHistory(a.out, a.history.Entries(), time.Now())
	return nil
}

// parseRange resolves the --range, --from and --to flags. A nil range means
// the query is unbounded.
func parseRange(name, from, to string, now time.Time) (*timerange.Range, error) {
	if from != "" {
		start, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return nil, fmt.Errorf("invalid --from: %w", err)
		}
		end := now
		if to != "" {
			if end, err = time.Parse(time.RFC3339, to); err != nil {
				return nil, fmt.Errorf("invalid --to: %w", err)
			}
		}
		if end.Before(start) {
			return nil, fmt.Errorf("--to is before --from")
		}
		rg := timerange.Absolute(start, end)
		return &rg, nil
	}

	if name == "" || strings.EqualFold(name, "none") {
		return nil, nil
	}
	rg, ok := timerange.Preset(name, now)
	if !ok {
		return nil, fmt.Errorf("unknown time range %q", name)
	}
	return &rg, nil
}
