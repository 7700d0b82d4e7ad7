package sendbuf

import (
	"log/slog"

	"github.com/c360/semring/metric"
	"github.com/c360/semring/pkg/ring"
)

// ReleaseFunc receives every frame once the buffer is done with it, either
// fully written or dropped.
type ReleaseFunc func(frame []byte)

// Option configures a Buffer.
type Option func(*options)

type options struct {
	allocator     ring.Allocator[[]byte]
	maxFrames     int
	release       ReleaseFunc
	logger        *slog.Logger
	metricsReg    *metric.MetricsRegistry
	metricsPrefix string
}

// WithAllocator sets the allocator for frame slots.
func WithAllocator(allocator ring.Allocator[[]byte]) Option {
	return func(o *options) {
		o.allocator = allocator
	}
}

// WithMaxFrames caps Grow.
func WithMaxFrames(limit int) Option {
	return func(o *options) {
		o.maxFrames = limit
	}
}

// WithReleaseFunc sets a callback for frames leaving the buffer, e.g. to
// return them to a sync.Pool.
func WithReleaseFunc(release ReleaseFunc) Option {
	return func(o *options) {
		o.release = release
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics exports buffer and frame-slot metrics under prefix.
func WithMetrics(registry *metric.MetricsRegistry, prefix string) Option {
	return func(o *options) {
		if registry != nil && prefix != "" {
			o.metricsReg = registry
			o.metricsPrefix = prefix
		}
	}
}
