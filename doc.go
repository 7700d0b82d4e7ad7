// Package semring provides bounded containers whose memory is under the
// caller's control, with the structured logging, error classification and
// Prometheus metrics used across the module.
//
// # Packages
//
//   - pkg/ring: RingBuffer, a generic fixed-capacity FIFO. Push never
//     allocates; capacity changes only through Reserve, which preserves
//     element order and fails atomically when storage cannot be obtained.
//   - pkg/worker: a worker pool whose backlog is a RingBuffer, with
//     explicit Resize and non-blocking Submit.
//   - pkg/sendbuf: a frame queue for connections that writes pending
//     frames in one vectored write.
//   - errors: error classification (transient, invalid, fatal) shared by
//     all packages.
//   - metric: the Prometheus registry wrapper and HTTP handler.
//   - cmd/semring: a soak tool that runs a pool and serves its metrics.
//
// # Quick Start
//
//	buf, err := ring.New[Event](128)
//	if err != nil {
//		return err
//	}
//
//	if buf.Full() {
//		if err := buf.Reserve(2 * buf.Capacity()); err != nil {
//			return err // buffer unchanged
//		}
//	}
//	buf.Push(ev)
//
// # Error Handling
//
// Contract violations such as Push on a full buffer panic. Everything
// else returns errors wrapped with errors.WrapInvalid, errors.WrapFatal
// or errors.WrapTransient, so callers can branch with errors.IsFatal and
// friends while errors.Is still matches the sentinels.
package semring
