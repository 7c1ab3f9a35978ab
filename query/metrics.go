package query

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/logdash/metric"
)

type queryMetrics struct {
	fetches  *prometheus.CounterVec
	duration prometheus.Histogram
	inFlight prometheus.Gauge
}

func newQueryMetrics(registry *metric.MetricsRegistry, name string) (*queryMetrics, error) {
	labels := prometheus.Labels{"store": name}
	m := &queryMetrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "query",
			Name:        "fetches_total",
			Help:        "Settled fetches by outcome (ok, error, stale)",
			ConstLabels: labels,
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "query",
			Name:        "fetch_duration_seconds",
			Help:        "Duration of published fetches",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "query",
			Name:        "fetches_in_flight",
			Help:        "Fetches issued and not yet settled",
			ConstLabels: labels,
		}),
	}

	if err := registry.RegisterCounterVec(name, "query_fetches", m.fetches); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogram(name, "query_fetch_duration", m.duration); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(name, "query_fetches_in_flight", m.inFlight); err != nil {
		return nil, err
	}
	return m, nil
}
