// Package main implements semring, a soak tool that drives a worker pool
// with a steady stream of jobs, collects their output through a send buffer
// and exposes the ring, pool and buffer metrics over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/c360/semring/errors"
	"github.com/c360/semring/metric"
	"github.com/c360/semring/pkg/sendbuf"
	"github.com/c360/semring/pkg/worker"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "semring"
)

type job struct {
	id       int
	workTime time.Duration
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run(args []string) error {
	cliCfg, err := parseFlags(flag.NewFlagSet(appName, flag.ContinueOnError), args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	logger := setupLogger(os.Stdout, cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := loadConfig(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cliCfg.Validate {
		logger.Info("Configuration is valid")
		return nil
	}

	out, closeOut, err := openOutput(cliCfg.OutputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	registry := metric.NewMetricsRegistry()

	buf, err := sendbuf.New(cfg.Output.Capacity,
		sendbuf.WithMaxFrames(cfg.Output.MaxCapacity),
		sendbuf.WithMetrics(registry, cfg.Output.MetricsPrefix),
		sendbuf.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create output buffer: %w", err)
	}
	output := newSink(buf, out)

	pool, err := worker.NewFromConfig(cfg.Worker, func(ctx context.Context, j job) error {
		select {
		case <-time.After(j.workTime):
		case <-ctx.Done():
			return ctx.Err()
		}
		return output.write([]byte("job " + strconv.Itoa(j.id) + " done\n"))
	}, registry, worker.WithLogger[job](logger))
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}

	signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	// The pool outlives the signal so Stop can drain the backlog.
	if err := pool.Start(context.Background()); err != nil {
		return fmt.Errorf("start worker pool: %w", err)
	}

	server := startMetricsServer(logger, cliCfg.MetricsPort, registry)

	logger.Info("semring started",
		"workers", cfg.Worker.Workers,
		"queue_size", cfg.Worker.QueueSize,
		"output_frames", cfg.Output.Capacity,
		"interval", cliCfg.Interval)

	submitted := generate(signalCtx, logger, pool, cliCfg.Interval, cliCfg.WorkTime)
	logger.Info("Received shutdown signal", "submitted", submitted)

	return shutdown(logger, pool, output, server, cliCfg.ShutdownTimeout)
}

// generate submits jobs until ctx is cancelled and returns how many were
// accepted. A full backlog is not an error for a soak run.
func generate(ctx context.Context, logger *slog.Logger, pool *worker.Pool[job], interval, workTime time.Duration) int {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	accepted := 0
	for id := 0; ; id++ {
		select {
		case <-ctx.Done():
			return accepted
		case <-ticker.C:
		}

		err := pool.Submit(job{id: id, workTime: workTime})
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, worker.ErrQueueFull):
			logger.Debug("backlog full", "job", id)
		default:
			logger.Warn("submit failed", "job", id, "error", err)
			return accepted
		}
	}
}

func startMetricsServer(logger *slog.Logger, port int, registry *metric.MetricsRegistry) *http.Server {
	if port == 0 {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metric.Handler(registry))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	logger.Info("metrics server listening", "addr", server.Addr)
	return server
}

// shutdown drains the pool, flushes the output and stops the metrics server.
func shutdown(logger *slog.Logger, pool *worker.Pool[job], output *sink, server *http.Server, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	if err := pool.Stop(timeout); err != nil {
		return fmt.Errorf("stop worker pool: %w", err)
	}
	if err := output.close(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	if server != nil {
		ctx, cancel := context.WithDeadline(context.Background(), deadline)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("stop metrics server: %w", err)
		}
	}

	stats := pool.Stats()
	logger.Info("semring shutdown complete",
		"processed", stats.Processed,
		"failed", stats.Failed,
		"dropped", stats.Dropped)
	return nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return io.Discard, func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open output: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
