package sendbuf

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/semring/metric"
)

type sendMetrics struct {
	bytesWritten  prometheus.Counter
	framesWritten prometheus.Counter
	bytesDropped  prometheus.Counter
	pending       prometheus.Gauge

	registry *metric.MetricsRegistry
	prefix   string
	names    []string
}

func newSendMetrics(registry *metric.MetricsRegistry, prefix string) (*sendMetrics, error) {
	labels := prometheus.Labels{"component": prefix}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "semring", Subsystem: "sendbuf", Name: name, Help: help, ConstLabels: labels,
		})
	}

	m := &sendMetrics{
		bytesWritten:  counter("bytes_written_total", "Total bytes handed to the writer"),
		framesWritten: counter("frames_written_total", "Total frames fully written"),
		bytesDropped:  counter("bytes_dropped_total", "Total unsent bytes dropped by shrinking or closing"),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "semring", Subsystem: "sendbuf", Name: "pending_bytes",
			Help: "Bytes queued but not yet written", ConstLabels: labels,
		}),
		registry: registry,
		prefix:   prefix,
	}

	counters := map[string]prometheus.Counter{
		"sendbuf_bytes_written":  m.bytesWritten,
		"sendbuf_frames_written": m.framesWritten,
		"sendbuf_bytes_dropped":  m.bytesDropped,
	}
	for _, name := range []string{"sendbuf_bytes_written", "sendbuf_frames_written", "sendbuf_bytes_dropped"} {
		if err := registry.RegisterCounter(prefix, name, counters[name]); err != nil {
			m.unregister()
			return nil, err
		}
		m.names = append(m.names, name)
	}
	if err := registry.RegisterGauge(prefix, "sendbuf_pending_bytes", m.pending); err != nil {
		m.unregister()
		return nil, err
	}
	m.names = append(m.names, "sendbuf_pending_bytes")

	return m, nil
}

func (m *sendMetrics) unregister() {
	for _, name := range m.names {
		m.registry.Unregister(m.prefix, name)
	}
	m.names = nil
}
