// Package ring provides RingBuffer, a generic bounded FIFO whose capacity
// changes only when the caller asks for it.
//
// # Overview
//
// RingBuffer is meant to sit inside higher-level components such as a
// bounded work queue or a socket send buffer, where the owner wants to
// decide when memory is allocated. Push never reallocates; a full buffer
// stays full until the owner pops or calls Reserve.
//
//	buf, err := ring.New[int](10)
//	if err != nil {
//		return err
//	}
//
//	for i := 0; i < 8; i++ {
//		buf.Push(i)
//	}
//
//	// Grow ahead of a burst. Order is preserved.
//	if err := buf.Reserve(16); err != nil {
//		return err
//	}
//
//	first := buf.Pop() // 0
//
// # Contract Violations
//
// Push on a full buffer, Pop on an empty one and PushSlice with more items
// than Free() are programming errors and panic. Check Full, Empty or Free
// first. Nothing is modified before the panic.
//
// # Resizing
//
// Reserve moves the live elements into fresh storage starting at index 0.
// Shrinking below Size() keeps the oldest elements and destroys the newest
// ones, newest first. Each destroyed element goes to the callback set with
// WithDiscardCallback:
//
//	buf, _ := ring.New[*Frame](64,
//		ring.WithDiscardCallback[*Frame](func(f *Frame) { f.Release() }),
//	)
//
// Storage is obtained before any element is touched. When the Allocator
// fails or the capacity exceeds WithMaxCapacity, Reserve returns a fatal
// error (see errors.IsFatal) and the buffer is unchanged.
//
// # Zero-Copy Access
//
// Data returns the live region as at most two slices of the underlying
// storage, suitable for vectored I/O:
//
//	for _, span := range buf.Data() {
//		process(span)
//	}
//
// # Observability
//
// Statistics are always collected and available via Stats. Prometheus
// metrics are exported when WithMetrics is given a registry. Resizes are
// logged at debug level through log/slog.
//
// # Thread Safety
//
// RingBuffer has no internal locking. Owners that share a buffer between
// goroutines must serialize every call, as pkg/worker does. Statistics can
// be read concurrently. BudgetAllocator is safe for concurrent use.
package ring
