package ring

import (
	"log/slog"

	"github.com/c360/semring/metric"
)

// DiscardCallback receives an element the buffer destroyed without handing
// it to Pop: elements truncated by a shrinking Reserve and elements removed
// by Clear.
type DiscardCallback[T any] func(item T)

// Option configures buffer behavior using the functional options pattern.
type Option[T any] func(*options[T])

type options[T any] struct {
	allocator   Allocator[T]
	maxCapacity int
	discard     DiscardCallback[T]
	logger      *slog.Logger

	// metricsReg is optional - if provided, stats are also exposed as Prometheus metrics
	metricsReg *metric.MetricsRegistry

	// metricsPrefix is used as the component label for Prometheus metrics
	metricsPrefix string
}

// WithAllocator sets the strategy used to obtain and release storage.
// A nil allocator is ignored and the heap allocator stays in place.
func WithAllocator[T any](allocator Allocator[T]) Option[T] {
	return func(opts *options[T]) {
		if allocator != nil {
			opts.allocator = allocator
		}
	}
}

// WithMaxCapacity makes New and Reserve fail with errors.ErrCapacityExceeded
// for capacities above limit. Values <= 0 mean no limit.
func WithMaxCapacity[T any](limit int) Option[T] {
	return func(opts *options[T]) {
		if limit > 0 {
			opts.maxCapacity = limit
		}
	}
}

// WithDiscardCallback sets a callback invoked for each element destroyed by
// Reserve truncation or Clear.
func WithDiscardCallback[T any](callback DiscardCallback[T]) Option[T] {
	return func(opts *options[T]) {
		opts.discard = callback
	}
}

// WithLogger sets the logger used for resize events. Defaults to slog.Default().
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(opts *options[T]) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithMetrics enables Prometheus metrics export for buffer statistics.
// The option is ignored when registry is nil or prefix is empty.
func WithMetrics[T any](registry *metric.MetricsRegistry, prefix string) Option[T] {
	return func(opts *options[T]) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

func applyOptions[T any](optFns ...Option[T]) *options[T] {
	opts := &options[T]{
		allocator: HeapAllocator[T]{},
	}

	for _, opt := range optFns {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
