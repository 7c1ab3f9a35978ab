package health

import (
	"sort"
	"sync"
	"time"
)

// Probe computes a component status on demand.
type Probe func() Status

// Monitor tracks component statuses. Statuses are either pushed with
// Update or pulled from registered probes at aggregation time.
type Monitor struct {
	mu       sync.RWMutex
	statuses map[string]Status
	probes   map[string]Probe
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		statuses: make(map[string]Status),
		probes:   make(map[string]Probe),
	}
}

// Update records the status of a named component.
func (m *Monitor) Update(name string, status Status) {
	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}

	m.mu.Lock()
	m.statuses[name] = status
	m.mu.Unlock()
}

// AddProbe registers fn to compute the status of name whenever health is
// read. A probe replaces any pushed status with the same name.
func (m *Monitor) AddProbe(name string, fn Probe) {
	m.mu.Lock()
	m.probes[name] = fn
	delete(m.statuses, name)
	m.mu.Unlock()
}

// Get returns the status of a named component.
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	probe, isProbe := m.probes[name]
	status, ok := m.statuses[name]
	m.mu.RUnlock()

	if isProbe {
		s := probe()
		s.Component = name
		return s, true
	}
	return status, ok
}

// Remove stops tracking a component.
func (m *Monitor) Remove(name string) {
	m.mu.Lock()
	delete(m.statuses, name)
	delete(m.probes, name)
	m.mu.Unlock()
}

// Components lists tracked component names in order.
func (m *Monitor) Components() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.statuses)+len(m.probes))
	for name := range m.statuses {
		names = append(names, name)
	}
	for name := range m.probes {
		names = append(names, name)
	}
	m.mu.RUnlock()

	sort.Strings(names)
	return names
}

// AggregateHealth evaluates probes and aggregates every component under
// systemName. Sub-statuses are ordered by component name.
func (m *Monitor) AggregateHealth(systemName string) Status {
	names := m.Components()
	subs := make([]Status, 0, len(names))
	for _, name := range names {
		if s, ok := m.Get(name); ok {
			subs = append(subs, s)
		}
	}
	return Aggregate(systemName, subs)
}

// Check adapts the monitor to metric.HealthFunc. Degraded counts as
// serving.
func (m *Monitor) Check(systemName string) func() (any, bool) {
	return func() (any, bool) {
		s := m.AggregateHealth(systemName)
		return s, !s.IsUnhealthy()
	}
}
