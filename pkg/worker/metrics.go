package worker

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/semring/metric"
)

const metricsService = "worker_pool"

// Metrics holds Prometheus metrics for worker pool monitoring
type Metrics struct {
	queueDepth     prometheus.Gauge
	utilization    prometheus.Gauge
	submitted      prometheus.Counter
	processed      prometheus.Counter
	failed         prometheus.Counter
	dropped        prometheus.Counter
	processingTime *prometheus.HistogramVec
}

// newMetrics creates the pool metrics and registers them under prefix.
// On error nothing stays registered.
func newMetrics(registry *metric.MetricsRegistry, prefix string) (*Metrics, error) {
	labels := prometheus.Labels{"pool": prefix}

	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "semring", Subsystem: "worker", Name: name, Help: help, ConstLabels: labels,
		})
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "semring", Subsystem: "worker", Name: name, Help: help, ConstLabels: labels,
		})
	}

	m := &Metrics{
		queueDepth:  gauge("queue_depth", "Current worker pool queue depth"),
		utilization: gauge("utilization", "Queue depth as a fraction of queue size (0-1)"),
		submitted:   counter("submitted_total", "Total work items submitted"),
		processed:   counter("processed_total", "Total work items processed"),
		failed:      counter("failed_total", "Total work items that failed processing"),
		dropped:     counter("dropped_total", "Total work items dropped by a full queue or a shrinking resize"),
		processingTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "semring",
			Subsystem:   "worker",
			Name:        "processing_duration_seconds",
			Help:        "Time spent processing work items",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			ConstLabels: labels,
		}, []string{"status"}),
	}

	var registered []string
	rollback := func() {
		for _, name := range registered {
			registry.Unregister(metricsService, name)
		}
	}

	steps := []struct {
		name     string
		register func(name string) error
	}{
		{"queue_depth", func(n string) error { return registry.RegisterGauge(metricsService, n, m.queueDepth) }},
		{"utilization", func(n string) error { return registry.RegisterGauge(metricsService, n, m.utilization) }},
		{"submitted_total", func(n string) error { return registry.RegisterCounter(metricsService, n, m.submitted) }},
		{"processed_total", func(n string) error { return registry.RegisterCounter(metricsService, n, m.processed) }},
		{"failed_total", func(n string) error { return registry.RegisterCounter(metricsService, n, m.failed) }},
		{"dropped_total", func(n string) error { return registry.RegisterCounter(metricsService, n, m.dropped) }},
		{"processing_duration_seconds", func(n string) error {
			return registry.RegisterHistogramVec(metricsService, n, m.processingTime)
		}},
	}
	for _, step := range steps {
		name := prefix + "_" + step.name
		if err := step.register(name); err != nil {
			rollback()
			return nil, err
		}
		registered = append(registered, name)
	}

	return m, nil
}

func (m *Metrics) updateQueue(depth, capacity int) {
	m.queueDepth.Set(float64(depth))
	if capacity == 0 {
		m.utilization.Set(0)
		return
	}
	m.utilization.Set(float64(depth) / float64(capacity))
}
