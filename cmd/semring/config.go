package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/c360/semring/errors"
	"github.com/c360/semring/pkg/ring"
	"github.com/c360/semring/pkg/worker"
)

// appConfig is the configuration file layout.
type appConfig struct {
	Worker worker.Config `json:"worker" yaml:"worker"`

	// Output sizes the send buffer that collects job results.
	Output ring.Config `json:"output" yaml:"output"`
}

func defaultAppConfig() appConfig {
	cfg := appConfig{
		Worker: worker.DefaultConfig(),
		Output: ring.DefaultConfig(),
	}
	cfg.Worker.MetricsPrefix = "jobs"
	cfg.Output.Capacity = 64
	cfg.Output.MetricsPrefix = "output"
	return cfg
}

func (c appConfig) Validate() error {
	if err := c.Worker.Validate(); err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if c.Output.Capacity == 0 {
		return errors.WrapInvalid(errors.ErrInvalidCapacity, "main", "Validate", "output capacity must be positive")
	}
	return nil
}

// loadConfig reads path on top of the defaults. An empty path yields the
// defaults.
func loadConfig(path string) (appConfig, error) {
	cfg := defaultAppConfig()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return appConfig{}, errors.WrapFatal(fmt.Errorf("%w: %w", errors.ErrMissingConfig, err),
			"main", "loadConfig", "open config")
	}
	defer f.Close()

	if err := decodeConfig(f, &cfg); err != nil {
		return appConfig{}, err
	}
	return cfg, cfg.Validate()
}

func decodeConfig(r io.Reader, cfg *appConfig) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.WrapInvalid(fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err),
			"main", "loadConfig", "decode config")
	}
	return nil
}
