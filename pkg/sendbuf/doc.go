// Package sendbuf queues outgoing frames for a connection and writes them
// with vectored I/O.
//
// A Buffer holds whole frames in a ring.RingBuffer. Queue never allocates:
// once the configured number of frame slots is used it returns
// ErrBufferFull and the caller decides whether to flush, Grow or drop.
//
//	buf, err := sendbuf.New(64)
//	if err != nil {
//		return err
//	}
//	if err := buf.Queue(frame); errors.Is(err, sendbuf.ErrBufferFull) {
//		if _, err := buf.WriteTo(conn); err != nil {
//			return err
//		}
//	}
//
// WriteTo hands every pending frame to the writer in one net.Buffers
// write, which becomes a single writev on TCP and Unix connections. A
// partial write leaves the unsent tail queued.
package sendbuf
