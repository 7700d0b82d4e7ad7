package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath      string
	OutputPath      string
	LogLevel        string
	LogFormat       string
	MetricsPort     int
	Interval        time.Duration
	WorkTime        time.Duration
	ShutdownTimeout time.Duration
	ShowVersion     bool
	Validate        bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*CLIConfig, error) {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("SEMRING_CONFIG", ""),
		"Path to a YAML or JSON configuration file, empty for defaults (env: SEMRING_CONFIG)")

	fs.StringVar(&cfg.OutputPath, "out",
		getEnv("SEMRING_OUT", ""),
		"File that receives the output frames, empty to discard (env: SEMRING_OUT)")

	fs.StringVar(&cfg.LogLevel, "log-level",
		getEnv("SEMRING_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: SEMRING_LOG_LEVEL)")

	fs.StringVar(&cfg.LogFormat, "log-format",
		getEnv("SEMRING_LOG_FORMAT", "json"),
		"Log format: json, text (env: SEMRING_LOG_FORMAT)")

	fs.IntVar(&cfg.MetricsPort, "metrics-port",
		getEnvInt("SEMRING_METRICS_PORT", 9090),
		"Prometheus metrics port, 0 to disable (env: SEMRING_METRICS_PORT)")

	fs.DurationVar(&cfg.Interval, "interval",
		getEnvDuration("SEMRING_INTERVAL", time.Millisecond),
		"Delay between submitted jobs (env: SEMRING_INTERVAL)")

	fs.DurationVar(&cfg.WorkTime, "work",
		getEnvDuration("SEMRING_WORK", 2*time.Millisecond),
		"Simulated processing time per job (env: SEMRING_WORK)")

	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("SEMRING_SHUTDOWN_TIMEOUT", 10*time.Second),
		"Graceful shutdown timeout (env: SEMRING_SHUTDOWN_TIMEOUT)")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.MetricsPort)
	}

	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive: %s", cfg.Interval)
	}

	return nil
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
