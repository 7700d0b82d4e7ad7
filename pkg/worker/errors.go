package worker

import (
	"context"

	"github.com/c360/semring/errors"
)

// Sentinel errors for worker pool operations. Each carries an error class
// and wraps the matching module sentinel.
var (
	// ErrPoolNotStarted indicates the pool hasn't been started yet
	ErrPoolNotStarted = classified(errors.ErrorInvalid, errors.ErrNotStarted, "worker pool not started")

	// ErrPoolStopped indicates the pool is stopping, stopped, or its context was cancelled
	ErrPoolStopped = classified(errors.ErrorFatal, errors.ErrAlreadyStopped, "worker pool stopped")

	// ErrPoolAlreadyStarted indicates Start() was called on a started pool
	ErrPoolAlreadyStarted = classified(errors.ErrorInvalid, errors.ErrAlreadyStarted, "worker pool already started")

	// ErrQueueFull indicates the backlog is at capacity. Retry after the
	// workers catch up or after Resize.
	ErrQueueFull = classified(errors.ErrorTransient, errors.ErrResourceExhausted, "worker pool queue full")

	// ErrNilProcessor indicates a nil processor function was provided
	ErrNilProcessor = classified(errors.ErrorInvalid, errors.ErrInvalidConfig, "processor function cannot be nil")

	// ErrStopTimeout indicates the pool didn't stop within the timeout
	ErrStopTimeout = classified(errors.ErrorTransient, context.DeadlineExceeded, "timeout waiting for workers to stop")

	// ErrProcessorPanic is wrapped by the error Stop returns when a
	// processor panicked while the pool was running.
	ErrProcessorPanic = classified(errors.ErrorFatal, nil, "processor panicked")
)

func classified(class errors.ErrorClass, base error, message string) error {
	return &errors.ClassifiedError{
		Class:     class,
		Err:       base,
		Message:   message,
		Component: "Pool",
	}
}
