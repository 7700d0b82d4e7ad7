// Package metric wraps a Prometheus registry for semring components.
//
// Components do not register collectors on the global Prometheus registry.
// They receive a *MetricsRegistry and register under a service name, which
// lets several buffers or pools coexist in one process and lets tests
// build an isolated registry per case:
//
//	registry := metric.NewMetricsRegistry()
//	buf, err := ring.New[[]byte](1024, ring.WithMetrics[[]byte](registry, "udp_input"))
//
//	http.Handle("/metrics", metric.Handler(registry))
//
// Registering the same service/metric pair twice fails with an invalid
// error that wraps errors.ErrMetricConflict. Unregister releases the pair
// so a component can be rebuilt under the same name.
package metric
