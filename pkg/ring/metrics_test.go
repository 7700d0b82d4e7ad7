package ring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semring/errors"
	"github.com/c360/semring/metric"
)

func TestRingBuffer_Metrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()

	r, err := New[int](4, WithMetrics[int](registry, "frames"))
	require.NoError(t, err)
	require.NotNil(t, r.metrics)
	assert.Equal(t, len(ringMetricNames), registry.Registered())

	assert.Equal(t, 4.0, testutil.ToFloat64(r.metrics.capacity))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.metrics.size))

	r.PushSlice([]int{1, 2, 3})
	r.Pop()
	assert.Equal(t, 3.0, testutil.ToFloat64(r.metrics.pushes))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.pops))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.metrics.size))
	assert.Equal(t, 0.5, testutil.ToFloat64(r.metrics.utilization))

	require.NoError(t, r.Reserve(1))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.resizes))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.discards))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.capacity))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.utilization))

	r.Clear()
	assert.Equal(t, 2.0, testutil.ToFloat64(r.metrics.discards))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.metrics.size))
}

func TestRingBuffer_MetricsAllocationFailure(t *testing.T) {
	registry := metric.NewMetricsRegistry()

	r, err := New[int](2, WithMetrics[int](registry, "limited"), WithMaxCapacity[int](4))
	require.NoError(t, err)

	require.Error(t, r.Reserve(8))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.allocationFailures))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.metrics.resizes))
}

func TestRingBuffer_MetricsDuplicatePrefix(t *testing.T) {
	registry := metric.NewMetricsRegistry()

	first, err := New[int](4, WithMetrics[int](registry, "shared"))
	require.NoError(t, err)

	_, err = New[int](4, WithMetrics[int](registry, "shared"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMetricConflict)
	assert.Equal(t, len(ringMetricNames), registry.Registered(),
		"failed registration must leave the first buffer's metrics in place")

	first.Push(1)
	assert.Equal(t, 1.0, testutil.ToFloat64(first.metrics.pushes))
}

func TestRingBuffer_MetricsWithoutPrefix(t *testing.T) {
	registry := metric.NewMetricsRegistry()

	r, err := New[int](4, WithMetrics[int](registry, ""))
	require.NoError(t, err)
	assert.Nil(t, r.metrics)
	assert.Equal(t, 0, registry.Registered())
}

func TestRingBuffer_CloseUnregistersMetrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()

	r, err := New[int](4, WithMetrics[int](registry, "closing"))
	require.NoError(t, err)
	r.Push(1)

	require.NoError(t, r.Close())
	assert.Equal(t, 0, registry.Registered())
	assert.Nil(t, r.metrics)

	// The prefix can be reused once the buffer is closed.
	_, err = New[int](4, WithMetrics[int](registry, "closing"))
	require.NoError(t, err)
}

func TestNew_FailureUnregistersMetrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()

	_, err := New[int](-1, WithMetrics[int](registry, "broken"))
	require.Error(t, err)
	assert.Equal(t, 0, registry.Registered())
}
