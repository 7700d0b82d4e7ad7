package ring

import (
	stderrors "errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/c360/semring/errors"
	"github.com/c360/semring/metric"
)

// Config describes a buffer in configuration files.
type Config struct {
	// Capacity is the initial number of slots. Zero creates a buffer without storage.
	Capacity int `json:"capacity" yaml:"capacity"`

	// MaxCapacity caps every later Reserve. Zero means no limit.
	MaxCapacity int `json:"max_capacity" yaml:"max_capacity"`

	// MetricsPrefix is the component label for Prometheus metrics.
	// Metrics are only exported when a registry is also supplied.
	MetricsPrefix string `json:"metrics_prefix" yaml:"metrics_prefix"`
}

// DefaultConfig returns a default buffer configuration.
func DefaultConfig() Config {
	return Config{
		Capacity: 1024,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.Capacity < 0 {
		return errors.WrapInvalid(errors.ErrInvalidCapacity, "ring", "Validate",
			fmt.Sprintf("capacity must not be negative, got %d", c.Capacity))
	}
	if c.MaxCapacity < 0 {
		return errors.WrapInvalid(errors.ErrInvalidCapacity, "ring", "Validate",
			fmt.Sprintf("max_capacity must not be negative, got %d", c.MaxCapacity))
	}
	if c.MaxCapacity > 0 && c.Capacity > c.MaxCapacity {
		return errors.WrapInvalid(errors.ErrInvalidCapacity, "ring", "Validate",
			fmt.Sprintf("capacity %d exceeds max_capacity %d", c.Capacity, c.MaxCapacity))
	}
	return nil
}

// NewFromConfig creates a buffer from cfg. registry may be nil, in which case
// no metrics are exported. Additional options are applied after the ones
// derived from cfg.
func NewFromConfig[T any](cfg Config, registry *metric.MetricsRegistry, extra ...Option[T]) (*RingBuffer[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "ring", "NewFromConfig", "config validation")
	}

	opts := []Option[T]{
		WithMaxCapacity[T](cfg.MaxCapacity),
		WithMetrics[T](registry, cfg.MetricsPrefix),
	}

	return New[T](cfg.Capacity, append(opts, extra...)...)
}

// LoadConfig decodes a YAML (or JSON) document on top of DefaultConfig and
// validates the result. An empty document yields the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return Config{}, errors.WrapInvalid(fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err),
			"ring", "LoadConfig", "decode config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
