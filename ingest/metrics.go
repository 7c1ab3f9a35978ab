package ingest

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/logdash/metric"
)

type ingestMetrics struct {
	flushes    prometheus.Counter
	flushed    prometheus.Counter
	collection prometheus.Gauge
	clears     prometheus.Counter
}

func newIngestMetrics(registry *metric.MetricsRegistry, name string) (*ingestMetrics, error) {
	labels := prometheus.Labels{"buffer": name}
	m := &ingestMetrics{
		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "ingest",
			Name:        "flushes_total",
			Help:        "Flushes applied to the visible collection",
			ConstLabels: labels,
		}),
		flushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "ingest",
			Name:        "flushed_items_total",
			Help:        "Items moved from the pending stage to the visible collection",
			ConstLabels: labels,
		}),
		collection: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "ingest",
			Name:        "collection_size",
			Help:        "Items in the visible collection",
			ConstLabels: labels,
		}),
		clears: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "ingest",
			Name:        "clears_total",
			Help:        "Times the visible collection was cleared",
			ConstLabels: labels,
		}),
	}

	if err := registry.RegisterCounter(name, "ingest_flushes", m.flushes); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "ingest_flushed_items", m.flushed); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(name, "ingest_collection_size", m.collection); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "ingest_clears", m.clears); err != nil {
		return nil, err
	}
	return m, nil
}
