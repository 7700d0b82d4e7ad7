package ring

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/semring/metric"
)

// ringMetrics holds Prometheus metrics for buffer operations.
type ringMetrics struct {
	pushes             prometheus.Counter
	pops               prometheus.Counter
	discards           prometheus.Counter
	resizes            prometheus.Counter
	allocationFailures prometheus.Counter

	size        prometheus.Gauge
	capacity    prometheus.Gauge
	utilization prometheus.Gauge

	registered []string
}

var ringMetricNames = []string{
	"ring_pushes", "ring_pops", "ring_discards", "ring_resizes",
	"ring_allocation_failures", "ring_size", "ring_capacity", "ring_utilization",
}

func newRingMetrics(registry *metric.MetricsRegistry, prefix string) (*ringMetrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "semring",
			Subsystem:   "ring",
			Name:        name,
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "semring",
			Subsystem:   "ring",
			Name:        name,
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        help,
		})
	}

	m := &ringMetrics{
		pushes:             counter("pushes_total", "Total number of elements pushed"),
		pops:               counter("pops_total", "Total number of elements popped"),
		discards:           counter("discards_total", "Total number of elements destroyed by truncation or clear"),
		resizes:            counter("resizes_total", "Total number of capacity changes"),
		allocationFailures: counter("allocation_failures_total", "Total number of refused resizes"),
		size:               gauge("size", "Current number of live elements"),
		capacity:           gauge("capacity", "Current capacity in elements"),
		utilization:        gauge("utilization", "Size as a fraction of capacity (0.0 to 1.0)"),
	}

	counters := []prometheus.Counter{
		m.pushes, m.pops, m.discards, m.resizes, m.allocationFailures,
	}
	for i, c := range counters {
		if err := registry.RegisterCounter(prefix, ringMetricNames[i], c); err != nil {
			m.unregister(registry, prefix)
			return nil, err
		}
		m.registered = append(m.registered, ringMetricNames[i])
	}
	gauges := []prometheus.Gauge{m.size, m.capacity, m.utilization}
	for i, g := range gauges {
		name := ringMetricNames[len(counters)+i]
		if err := registry.RegisterGauge(prefix, name, g); err != nil {
			m.unregister(registry, prefix)
			return nil, err
		}
		m.registered = append(m.registered, name)
	}

	return m, nil
}

// unregister removes the metrics this instance registered.
func (m *ringMetrics) unregister(registry *metric.MetricsRegistry, prefix string) {
	for _, name := range m.registered {
		registry.Unregister(prefix, name)
	}
	m.registered = nil
}

func (m *ringMetrics) recordPush(n, size, capacity int) {
	m.pushes.Add(float64(n))
	m.updateSize(size, capacity)
}

func (m *ringMetrics) recordPop(size, capacity int) {
	m.pops.Inc()
	m.updateSize(size, capacity)
}

func (m *ringMetrics) recordDiscard(n, size, capacity int) {
	m.discards.Add(float64(n))
	m.updateSize(size, capacity)
}

func (m *ringMetrics) recordResize(size, capacity int) {
	m.resizes.Inc()
	m.updateSize(size, capacity)
}

func (m *ringMetrics) recordAllocationFailure() {
	m.allocationFailures.Inc()
}

func (m *ringMetrics) updateSize(size, capacity int) {
	m.size.Set(float64(size))
	m.capacity.Set(float64(capacity))
	if capacity == 0 {
		m.utilization.Set(0)
		return
	}
	m.utilization.Set(float64(size) / float64(capacity))
}
