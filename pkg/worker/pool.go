// Package worker provides a generic worker pool for concurrent task processing
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/semring/errors"
	"github.com/c360/semring/metric"
	"github.com/c360/semring/pkg/ring"
)

// Pool represents a generic worker pool that can process any work type T.
// Pending work is held in a ring buffer that only changes size through
// Resize.
type Pool[T any] struct {
	// Configuration
	workers      int
	queueSize    int
	maxQueueSize int
	processor    func(context.Context, T) error
	allocator    ring.Allocator[T]
	logger       *slog.Logger

	// Backlog state, guarded by mu. cond is signalled when work arrives,
	// when the pool starts closing and when the context is cancelled.
	mu      sync.Mutex
	cond    *sync.Cond
	backlog *ring.RingBuffer[T]
	ctx     context.Context
	started bool
	closing bool

	// Lifecycle management
	lifecycleMu sync.Mutex
	stopped     bool
	group       *errgroup.Group
	done        chan struct{}

	// Statistics (atomic)
	submitted atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64

	// Metrics configuration
	metrics         *Metrics
	metricsRegistry *metric.MetricsRegistry
	metricsPrefix   string
}

// Option represents a configuration option for the worker pool
type Option[T any] func(*Pool[T])

// WithMetricsRegistry configures the pool to register metrics with the given registry
func WithMetricsRegistry[T any](registry *metric.MetricsRegistry, prefix string) Option[T] {
	return func(p *Pool[T]) {
		p.metricsRegistry = registry
		p.metricsPrefix = prefix
	}
}

// WithLogger sets the logger for lifecycle and processing events.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(p *Pool[T]) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithAllocator sets the allocator for the backlog storage, e.g. a
// ring.BudgetAllocator shared by several pools.
func WithAllocator[T any](allocator ring.Allocator[T]) Option[T] {
	return func(p *Pool[T]) {
		p.allocator = allocator
	}
}

// WithMaxQueueSize caps the queue size accepted by Start and Resize.
func WithMaxQueueSize[T any](limit int) Option[T] {
	return func(p *Pool[T]) {
		if limit > 0 {
			p.maxQueueSize = limit
		}
	}
}

// NewPool creates a new generic worker pool with optional configuration.
// Backlog storage is allocated by Start.
func NewPool[T any](workers, queueSize int, processor func(context.Context, T) error, opts ...Option[T]) *Pool[T] {
	if workers <= 0 {
		workers = 10 // Default worker count
	}
	if queueSize <= 0 {
		queueSize = 1000 // Default queue size
	}
	if processor == nil {
		panic(ErrNilProcessor)
	}

	pool := &Pool[T]{
		workers:   workers,
		queueSize: queueSize,
		processor: processor,
		logger:    slog.Default(),
	}
	pool.cond = sync.NewCond(&pool.mu)

	// Apply options
	for _, opt := range opts {
		opt(pool)
	}

	// Initialize metrics if registry provided
	if pool.metricsRegistry != nil && pool.metricsPrefix != "" {
		metrics, err := newMetrics(pool.metricsRegistry, pool.metricsPrefix)
		if err != nil {
			pool.logger.Warn("worker pool metrics disabled",
				"pool", pool.metricsPrefix,
				"error", err)
		}
		pool.metrics = metrics
	}

	return pool
}

// Submit submits work to the pool. Returns ErrQueueFull if the backlog is
// at capacity; the backlog never grows on its own.
func (p *Pool[T]) Submit(work T) error {
	p.mu.Lock()

	if !p.started {
		p.mu.Unlock()
		return ErrPoolNotStarted
	}
	if p.closing || p.ctx.Err() != nil {
		p.mu.Unlock()
		return ErrPoolStopped
	}

	if p.backlog.Full() {
		p.mu.Unlock()
		p.dropped.Add(1)
		if p.metrics != nil {
			p.metrics.dropped.Inc()
		}
		return ErrQueueFull
	}

	p.backlog.Push(work)
	depth, capacity := p.backlog.Size(), p.backlog.Capacity()
	p.cond.Signal()
	p.mu.Unlock()

	p.submitted.Add(1)
	if p.metrics != nil {
		p.metrics.submitted.Inc()
		p.metrics.updateQueue(depth, capacity)
	}
	return nil
}

// Start allocates the backlog and starts the workers. Workers stop taking
// new items once ctx is cancelled.
func (p *Pool[T]) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrPoolAlreadyStarted
	}

	backlog, err := ring.New[T](p.queueSize, p.backlogOptions()...)
	if err != nil {
		return errors.Wrap(err, "Pool", "Start", "allocate backlog")
	}

	p.backlog = backlog
	p.ctx = ctx
	p.done = make(chan struct{})
	p.group = &errgroup.Group{}

	// Start workers with context passed through
	for i := 0; i < p.workers; i++ {
		p.group.Go(func() error {
			return p.worker(ctx)
		})
	}

	// Wake idle workers on cancellation.
	done := p.done
	p.group.Go(func() error {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.cond.Broadcast()
			p.mu.Unlock()
		case <-done:
		}
		return nil
	})

	if p.metrics != nil {
		p.metrics.updateQueue(0, p.queueSize)
	}

	p.started = true
	p.logger.Info("worker pool started",
		"workers", p.workers,
		"queue_size", p.queueSize)
	return nil
}

// Stop stops accepting work, lets the workers drain the backlog and waits
// up to timeout for them to finish. After a timeout Stop may be called
// again. Items still queued when a cancelled pool stops are discarded and
// counted as dropped. If a processor panicked while the pool ran, Stop
// returns an error wrapping ErrProcessorPanic.
func (p *Pool[T]) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return nil
	}
	if !p.closing {
		p.closing = true
		close(p.done)
	}
	p.cond.Broadcast()
	p.mu.Unlock()

	// Wait for workers to finish with the provided timeout
	waited := make(chan error, 1)
	go func() {
		waited <- p.group.Wait()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var workerErr error
	select {
	case workerErr = <-waited:
	case <-timer.C:
		p.logger.Warn("worker pool stop timed out", "timeout", timeout)
		return ErrStopTimeout
	}

	p.mu.Lock()
	err := p.backlog.Close()
	p.mu.Unlock()
	if workerErr != nil {
		err = workerErr
	}

	p.stopped = true
	if p.metrics != nil {
		p.metrics.updateQueue(0, 0)
	}
	p.logger.Info("worker pool stopped",
		"processed", p.processed.Load(),
		"failed", p.failed.Load(),
		"dropped", p.dropped.Load())
	return err
}

// Resize changes the backlog capacity. Shrinking below the current depth
// drops the most recently submitted items, which are counted as dropped.
// Before Start it only records the size to allocate. On an allocation
// failure the backlog keeps its size and contents.
func (p *Pool[T]) Resize(queueSize int) error {
	if queueSize <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidCapacity, "Pool", "Resize", "validate queue size")
	}
	if p.maxQueueSize > 0 && queueSize > p.maxQueueSize {
		return errors.WrapFatal(errors.ErrCapacityExceeded, "Pool", "Resize", "check queue size limit")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.backlog == nil {
		p.queueSize = queueSize
		return nil
	}
	if p.closing {
		return ErrPoolStopped
	}

	old := p.queueSize
	if err := p.backlog.Reserve(queueSize); err != nil {
		return errors.Wrap(err, "Pool", "Resize", "reserve backlog")
	}
	p.queueSize = queueSize

	if p.metrics != nil {
		p.metrics.updateQueue(p.backlog.Size(), queueSize)
	}
	p.logger.Debug("worker pool resized",
		"old_queue_size", old,
		"new_queue_size", queueSize,
		"queue_depth", p.backlog.Size())
	return nil
}

// Stats returns current pool statistics
func (p *Pool[T]) Stats() PoolStats {
	p.mu.Lock()
	queueSize := p.queueSize
	depth := 0
	if p.backlog != nil {
		depth = p.backlog.Size()
	}
	p.mu.Unlock()

	return PoolStats{
		Workers:    p.workers,
		QueueSize:  queueSize,
		QueueDepth: depth,
		Submitted:  p.submitted.Load(),
		Processed:  p.processed.Load(),
		Failed:     p.failed.Load(),
		Dropped:    p.dropped.Load(),
	}
}

// PoolStats represents worker pool statistics
type PoolStats struct {
	Workers    int   `json:"workers"`
	QueueSize  int   `json:"queue_size"`
	QueueDepth int   `json:"queue_depth"`
	Submitted  int64 `json:"submitted"`
	Processed  int64 `json:"processed"`
	Failed     int64 `json:"failed"`
	Dropped    int64 `json:"dropped"`
}

func (p *Pool[T]) backlogOptions() []ring.Option[T] {
	return []ring.Option[T]{
		ring.WithAllocator[T](p.allocator),
		ring.WithMaxCapacity[T](p.maxQueueSize),
		ring.WithLogger[T](p.logger),
		ring.WithDiscardCallback[T](func(T) {
			p.dropped.Add(1)
			if p.metrics != nil {
				p.metrics.dropped.Inc()
			}
		}),
	}
}

// worker processes work items from the backlog until the pool is closing
// and the backlog is empty, or ctx is cancelled. It keeps running after a
// processor panic and returns the first one when it exits.
func (p *Pool[T]) worker(ctx context.Context) error {
	var panicErr error
	for {
		p.mu.Lock()
		for p.backlog.Empty() && !p.closing && ctx.Err() == nil {
			p.cond.Wait()
		}
		if ctx.Err() != nil || p.backlog.Empty() {
			p.mu.Unlock()
			return panicErr
		}
		work := p.backlog.Pop()
		depth, capacity := p.backlog.Size(), p.backlog.Capacity()
		p.mu.Unlock()

		if p.metrics != nil {
			p.metrics.updateQueue(depth, capacity)
		}
		if err := p.process(ctx, work); err != nil && panicErr == nil {
			panicErr = err
		}
	}
}

// process runs the processor on one item. A panic is counted as a failure
// and returned as an error wrapping ErrProcessorPanic.
func (p *Pool[T]) process(ctx context.Context, work T) (panicErr error) {
	start := time.Now()
	err := p.run(ctx, work)
	duration := time.Since(start)
	if errors.Is(err, ErrProcessorPanic) {
		panicErr = errors.WrapFatal(err, "Pool", "process", "run processor")
		p.logger.Error("processor panicked", "error", err)
	}

	// Update statistics
	p.processed.Add(1)
	if err != nil {
		p.failed.Add(1)
		p.logger.Debug("work item failed",
			"duration", duration,
			"error", err)
	}

	// Update metrics
	if p.metrics != nil {
		p.metrics.processed.Inc()
		status := "success"
		if err != nil {
			p.metrics.failed.Inc()
			status = "error"
		}
		p.metrics.processingTime.WithLabelValues(status).Observe(duration.Seconds())
	}
	return panicErr
}

func (p *Pool[T]) run(ctx context.Context, work T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrProcessorPanic, r)
		}
	}()
	return p.processor(ctx, work)
}
