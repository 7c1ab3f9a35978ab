package stream

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/logdash/metric"
)

type clientMetrics struct {
	state        prometheus.Gauge
	attempts     prometheus.Counter
	connects     prometheus.Counter
	messages     prometheus.Counter
	decodeErrors prometheus.Counter
}

func newClientMetrics(registry *metric.MetricsRegistry, name string) (*clientMetrics, error) {
	if registry == nil {
		return nil, nil
	}
	if name == "" {
		name = "stream"
	}
	labels := prometheus.Labels{"client": name}

	m := &clientMetrics{
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "stream",
			Name:        "state",
			Help:        "Connection state (0=connecting 1=open 2=closed 3=error 4=shutdown)",
			ConstLabels: labels,
		}),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "stream",
			Name:        "connect_attempts_total",
			Help:        "Connection attempts",
			ConstLabels: labels,
		}),
		connects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "stream",
			Name:        "connects_total",
			Help:        "Successful connections",
			ConstLabels: labels,
		}),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "stream",
			Name:        "messages_total",
			Help:        "Messages decoded and delivered",
			ConstLabels: labels,
		}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "stream",
			Name:        "decode_errors_total",
			Help:        "Messages discarded because they failed to decode",
			ConstLabels: labels,
		}),
	}

	if err := registry.RegisterGauge(name, "state", m.state); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "connect_attempts", m.attempts); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "connects", m.connects); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "messages", m.messages); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "decode_errors", m.decodeErrors); err != nil {
		return nil, err
	}
	return m, nil
}
