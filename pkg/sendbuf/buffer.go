package sendbuf

import (
	"io"
	"log/slog"
	"net"

	"github.com/c360/semring/errors"
	"github.com/c360/semring/pkg/ring"
)

// Buffer is a FIFO of outgoing frames. Frames are retained, not copied, so
// callers must not modify a frame after queueing it. A Buffer is not safe
// for concurrent use.
type Buffer struct {
	frames  *ring.RingBuffer[[]byte]
	sent    int // bytes of the front frame already written
	pending int // bytes queued and not yet written

	release ReleaseFunc
	logger  *slog.Logger
	metrics *sendMetrics
	stats   Stats
}

// Stats counts the traffic through a Buffer.
type Stats struct {
	BytesWritten  int64 `json:"bytes_written"`
	FramesWritten int64 `json:"frames_written"`
	BytesDropped  int64 `json:"bytes_dropped"`
	FramesDropped int64 `json:"frames_dropped"`
}

var _ io.WriterTo = (*Buffer)(nil)

// New creates a buffer with room for frames frames.
func New(frames int, opts ...Option) (*Buffer, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	b := &Buffer{release: o.release, logger: o.logger}

	if o.metricsReg != nil {
		metrics, err := newSendMetrics(o.metricsReg, o.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "Buffer", "New", "metrics registration")
		}
		b.metrics = metrics
	}

	ringOpts := []ring.Option[[]byte]{
		ring.WithAllocator[[]byte](o.allocator),
		ring.WithMaxCapacity[[]byte](o.maxFrames),
		ring.WithLogger[[]byte](o.logger),
		ring.WithDiscardCallback[[]byte](b.dropped),
		ring.WithMetrics[[]byte](o.metricsReg, o.metricsPrefix),
	}
	r, err := ring.New[[]byte](frames, ringOpts...)
	if err != nil {
		if b.metrics != nil {
			b.metrics.unregister()
		}
		return nil, err
	}
	b.frames = r

	return b, nil
}

// Queue appends frame. Empty frames are ignored. It returns ErrBufferFull
// when all frame slots are in use.
func (b *Buffer) Queue(frame []byte) error {
	if len(frame) == 0 {
		return nil
	}
	if b.frames.Full() {
		return ErrBufferFull
	}

	b.frames.Push(frame)
	b.pending += len(frame)
	b.updatePending()
	return nil
}

// Grow sets the number of frame slots to frames. When frames is below
// Frames, the newest frames are dropped and counted in Stats. The front
// frame is only dropped by Grow(0).
func (b *Buffer) Grow(frames int) error {
	before := b.frames.Size()
	if err := b.frames.Reserve(frames); err != nil {
		return err
	}
	if b.frames.Size() < before {
		b.recount()
	}
	return nil
}

// Frames returns the number of queued frames, including a partially
// written front frame.
func (b *Buffer) Frames() int {
	return b.frames.Size()
}

// Pending returns the number of bytes not yet written.
func (b *Buffer) Pending() int {
	return b.pending
}

// Capacity returns the number of frame slots.
func (b *Buffer) Capacity() int {
	return b.frames.Capacity()
}

// Stats returns a copy of the traffic counters.
func (b *Buffer) Stats() Stats {
	return b.stats
}

// WriteTo writes all pending bytes to w in one vectored write. Fully
// written frames are removed. On error the unwritten remainder, including
// the unsent tail of a partially written frame, stays queued for the next
// call.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	if b.pending == 0 {
		return 0, nil
	}

	bufs := b.vector()
	n, err := bufs.WriteTo(w)
	b.consume(int(n))

	if err != nil {
		b.logger.Debug("send buffer write failed",
			"written", n,
			"pending", b.pending,
			"error", err)
		return n, errors.WrapTransient(err, "Buffer", "WriteTo", "write frames")
	}
	return n, nil
}

// Close drops every queued frame and releases the frame slots. The buffer
// may be reused after Grow.
func (b *Buffer) Close() error {
	b.frames.Clear()
	b.recount()
	if err := b.frames.Close(); err != nil {
		return err
	}
	if b.metrics != nil {
		b.metrics.unregister()
		b.metrics = nil
	}
	return nil
}

// vector lists the unsent bytes of every queued frame.
func (b *Buffer) vector() net.Buffers {
	bufs := make(net.Buffers, 0, b.frames.Size())
	for _, span := range b.frames.Data() {
		for _, frame := range span {
			if len(bufs) == 0 {
				frame = frame[b.sent:]
			}
			bufs = append(bufs, frame)
		}
	}
	return bufs
}

// consume accounts for n written bytes, popping frames that are complete.
func (b *Buffer) consume(n int) {
	b.pending -= n
	b.stats.BytesWritten += int64(n)
	if b.metrics != nil {
		b.metrics.bytesWritten.Add(float64(n))
	}

	for n > 0 {
		front, _ := b.frames.Peek()
		remaining := len(front) - b.sent
		if n < remaining {
			b.sent += n
			break
		}

		n -= remaining
		b.frames.Pop()
		b.sent = 0
		b.stats.FramesWritten++
		if b.metrics != nil {
			b.metrics.framesWritten.Inc()
		}
		if b.release != nil {
			b.release(front)
		}
	}

	b.updatePending()
}

// dropped is the discard callback of the frame ring. It runs while the
// ring is being modified, so byte accounting is left to recount.
func (b *Buffer) dropped(frame []byte) {
	b.stats.FramesDropped++
	if b.release != nil {
		b.release(frame)
	}
}

// recount recomputes pending bytes after frames were dropped and charges
// the difference to the dropped counters.
func (b *Buffer) recount() {
	if b.frames.Empty() {
		b.sent = 0
	}

	pending := -b.sent
	for _, span := range b.frames.Data() {
		for _, frame := range span {
			pending += len(frame)
		}
	}

	lost := b.pending - pending
	b.pending = pending
	b.stats.BytesDropped += int64(lost)
	if b.metrics != nil {
		b.metrics.bytesDropped.Add(float64(lost))
	}
	b.updatePending()
}

func (b *Buffer) updatePending() {
	if b.metrics != nil {
		b.metrics.pending.Set(float64(b.pending))
	}
}
