// Package logdash is the engine behind a log dashboard: a live stream of
// log entries and paginated queries over stored logs.
//
// # Architecture
//
// Two independent pipelines share storage, metrics and health:
//
//	WebSocket ──> stream.Client ──> ingest.Buffer ──> view.View ──> view.Pager
//	                  (reconnect,        (debounced,        (substring
//	                   backoff)           capped, pause)      filter)
//
//	params ──> query.Store ──> query.HTTPFetcher ──> GET /query
//	              │  (latest-token wins, loading, errors keep results)
//	              └──> history.History ──> persist.Mirror ──> persist.Backend
//	                                                            (memory or NATS KV)
//
// timerange.Refresher slides live time ranges forward and pushes them into
// the query store. health.Monitor derives process health from stream,
// NATS and query state; metric.Server exposes it with Prometheus metrics.
//
// # Packages
//
//   - types: LogEntry and its tolerant JSON decoding
//   - stream: WebSocket client with capped exponential backoff
//   - ingest: debounced, bounded, pausable collection
//   - view: filtered projection and client-side pagination
//   - query: paginated query store and HTTP fetcher
//   - timerange: presets, live ranges, relative formatting
//   - history: recent-query list
//   - persist: JSON values mirrored to a backend
//   - natsclient: NATS connection and JetStream KV access
//   - config, errors, metric, health: ambient infrastructure
//   - pkg/buffer, pkg/cache, pkg/retry, pkg/timestamp: shared utilities
//
// # Command
//
// cmd/logdash runs the pipelines headlessly:
//
//	logdash tail --filter error
//	logdash query --q 'level:error' --range 1h --watch
//	logdash history
package logdash
