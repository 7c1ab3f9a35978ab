// Package health derives component health from logdash runtime state and
// aggregates it for the /health endpoint.
//
// There are three states: healthy, degraded and unhealthy. A live stream
// that is reconnecting is degraded; a stream that was shut down or whose
// last connection attempt failed is unhealthy. Aggregation follows the
// worst sub-status:
//
//	monitor := health.NewMonitor()
//	monitor.Update("stream", health.FromStream("stream", client.Stats()))
//	monitor.Update("kv", health.FromNATS("kv", nc.Status()))
//	status := monitor.AggregateHealth("logdash")
//
// Messages copied from errors are sanitized: URLs, paths, addresses and
// credential-looking pairs are masked before they leave the process.
package health
