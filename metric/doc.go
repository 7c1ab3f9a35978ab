// Package metric provides the Prometheus registry shared by logdash components
// and a small HTTP server exposing it.
//
// Components never register directly with Prometheus. They build their
// collectors under the "logdash" namespace and hand them to a
// MetricsRegistry keyed by component name, which rejects duplicates with a
// classified invalid error:
//
//	reg := metric.NewMetricsRegistry()
//	drops := prometheus.NewCounter(prometheus.CounterOpts{
//	    Namespace: metric.Namespace,
//	    Subsystem: "ingest",
//	    Name:      "dropped_total",
//	    Help:      "Entries dropped by the capacity cap",
//	})
//	_ = reg.RegisterCounter("live", "dropped", drops)
//
// A nil registry everywhere means "metrics disabled"; components check for it
// and skip instrumentation.
//
// Server exposes the registry on /metrics (OpenMetrics enabled) and a
// JSON /health endpoint backed by a HealthFunc.
package metric
