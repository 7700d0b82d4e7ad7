// Package worker provides a generic, thread-safe worker pool whose backlog
// is a bounded ring buffer with explicit resizing.
//
// # Overview
//
// A Pool runs a fixed number of goroutines that take work items from a
// shared backlog in FIFO order:
//
//	pool := worker.NewPool[Job](
//	    5,   // workers
//	    100, // backlog slots
//	    func(ctx context.Context, job Job) error {
//	        return handle(ctx, job)
//	    },
//	)
//
//	if err := pool.Start(ctx); err != nil {
//	    return err
//	}
//	defer pool.Stop(5 * time.Second)
//
//	if err := pool.Submit(job); errors.Is(err, worker.ErrQueueFull) {
//	    // Backpressure: reject or retry later.
//	}
//
// # Backlog
//
// The backlog is a ring.RingBuffer allocated by Start. Submit never blocks
// and never grows the backlog: when it is full the item is rejected with
// ErrQueueFull and counted as dropped. Capacity changes only through
// Resize, which preserves queue order. Shrinking below the current depth
// drops the newest items and counts them as dropped as well.
//
// Several pools can draw backlog storage from one ring.BudgetAllocator via
// WithAllocator. Start and Resize then fail with an error classified as
// fatal (see errors.IsFatal) when the budget is exhausted, and Resize
// leaves the backlog untouched.
//
// # Shutdown
//
// Stop(timeout) rejects new work with ErrPoolStopped, lets the workers
// drain the backlog and waits for them. ErrStopTimeout is returned when
// they do not finish in time; Stop can be called again. Cancelling the
// context passed to Start makes idle workers exit immediately and busy
// workers exit after their current item. Items left in the backlog are
// discarded by the final Stop and counted as dropped. A processor panic is
// recovered and counted as a failure, and Stop returns it wrapped around
// ErrProcessorPanic.
//
// # Observability
//
// Statistics are always tracked with atomic counters and returned by
// Stats. WithMetricsRegistry additionally exports:
//
//	semring_worker_queue_depth{pool="<prefix>"}
//	semring_worker_utilization{pool="<prefix>"}
//	semring_worker_submitted_total{pool="<prefix>"}
//	semring_worker_processed_total{pool="<prefix>"}
//	semring_worker_failed_total{pool="<prefix>"}
//	semring_worker_dropped_total{pool="<prefix>"}
//	semring_worker_processing_duration_seconds{pool="<prefix>",status="success|error"}
//
// Lifecycle events are logged at info level and processing failures at
// debug level through the logger set with WithLogger.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Submit, Resize, Stats and the
// workers share one mutex around the backlog. Start and Stop are
// additionally serialized by a lifecycle mutex, so Submit does not block
// while Stop waits.
package worker
