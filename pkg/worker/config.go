package worker

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/c360/semring/errors"
	"github.com/c360/semring/metric"
)

// Config describes a worker pool in configuration files.
type Config struct {
	Workers   int `json:"workers" yaml:"workers"`
	QueueSize int `json:"queue_size" yaml:"queue_size"`

	// MaxQueueSize caps Resize. Zero means no limit.
	MaxQueueSize int `json:"max_queue_size" yaml:"max_queue_size"`

	// MetricsPrefix names the pool in Prometheus metrics.
	MetricsPrefix string `json:"metrics_prefix" yaml:"metrics_prefix"`
}

// DefaultConfig returns a default pool configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   10,
		QueueSize: 1000,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidData, "worker", "Validate",
			fmt.Sprintf("workers must be positive, got %d", c.Workers))
	}
	if c.QueueSize <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidCapacity, "worker", "Validate",
			fmt.Sprintf("queue_size must be positive, got %d", c.QueueSize))
	}
	if c.MaxQueueSize < 0 {
		return errors.WrapInvalid(errors.ErrInvalidCapacity, "worker", "Validate",
			fmt.Sprintf("max_queue_size must not be negative, got %d", c.MaxQueueSize))
	}
	if c.MaxQueueSize > 0 && c.QueueSize > c.MaxQueueSize {
		return errors.WrapInvalid(errors.ErrInvalidCapacity, "worker", "Validate",
			fmt.Sprintf("queue_size %d exceeds max_queue_size %d", c.QueueSize, c.MaxQueueSize))
	}
	return nil
}

// NewFromConfig creates a pool from cfg. registry may be nil.
func NewFromConfig[T any](
	cfg Config,
	processor func(context.Context, T) error,
	registry *metric.MetricsRegistry,
	opts ...Option[T],
) (*Pool[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "worker", "NewFromConfig", "config validation")
	}
	if processor == nil {
		return nil, errors.WrapInvalid(ErrNilProcessor, "worker", "NewFromConfig", "validate processor")
	}

	base := []Option[T]{WithMaxQueueSize[T](cfg.MaxQueueSize)}
	if registry != nil && cfg.MetricsPrefix != "" {
		base = append(base, WithMetricsRegistry[T](registry, cfg.MetricsPrefix))
	}

	return NewPool(cfg.Workers, cfg.QueueSize, processor, append(base, opts...)...), nil
}

// LoadConfig decodes a YAML (or JSON) document on top of DefaultConfig and
// validates the result.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return Config{}, errors.WrapInvalid(fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err),
			"worker", "LoadConfig", "decode config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
