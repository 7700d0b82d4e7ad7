package ring

import (
	"log/slog"

	"github.com/c360/semring/errors"
)

// RingBuffer is a bounded FIFO container with explicit, order-preserving
// resizing. It holds at most Capacity() elements and never grows on its
// own: Push on a full buffer is a contract violation, and making room is
// the caller's job via Reserve.
//
// Live elements occupy [head, tail) modulo the capacity, either as one run
// or as two runs split at the end of storage. tail == Capacity() is the
// empty sentinel, so head == tail with tail in range always means full.
// Slots outside the live region hold the zero value of T.
//
// The zero value is an empty buffer with no storage and capacity zero.
// A RingBuffer is not safe for concurrent use and must not be copied after
// first use.
type RingBuffer[T any] struct {
	slots   []T
	head    int // next element to pop
	tail    int // next push position, len(slots) when empty
	opts    *options[T]
	stats   Statistics
	metrics *ringMetrics
}

// New creates a ring buffer with storage for capacity elements.
// Capacity zero yields the degenerate buffer that is both empty and full.
// Errors are returned for a negative capacity, when storage cannot be
// allocated, or when metrics registration fails.
func New[T any](capacity int, optFns ...Option[T]) (*RingBuffer[T], error) {
	opts := applyOptions(optFns...)

	r := &RingBuffer[T]{opts: opts}
	r.stats.start()

	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		metrics, err := newRingMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "RingBuffer", "New", "metrics registration")
		}
		r.metrics = metrics
	}

	if _, err := r.reserve(capacity, "New"); err != nil {
		if r.metrics != nil {
			r.metrics.unregister(opts.metricsReg, opts.metricsPrefix)
		}
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.updateSize(0, capacity)
	}

	return r, nil
}

// Capacity returns the number of slots in the current storage.
func (r *RingBuffer[T]) Capacity() int {
	return len(r.slots)
}

// Size returns the number of live elements.
func (r *RingBuffer[T]) Size() int {
	switch {
	case r.tail == len(r.slots):
		return 0
	case r.tail > r.head:
		return r.tail - r.head
	default:
		return r.tail + len(r.slots) - r.head
	}
}

// Free returns how many more elements fit without a Reserve.
func (r *RingBuffer[T]) Free() int {
	return len(r.slots) - r.Size()
}

// Empty reports whether the buffer holds no elements.
func (r *RingBuffer[T]) Empty() bool {
	return r.tail == len(r.slots)
}

// Full reports whether Size() == Capacity(). A zero-capacity buffer is
// always full.
func (r *RingBuffer[T]) Full() bool {
	return r.Size() == len(r.slots)
}

// Push appends item at the back. It panics if the buffer is full.
func (r *RingBuffer[T]) Push(item T) {
	if r.Full() {
		panic("ring: Push on full buffer")
	}

	r.leaveEmpty()
	r.slots[r.tail] = item
	r.tail = r.next(r.tail)

	r.recordPush(1)
}

// PushSlice appends items at the back in order, as if by repeated Push.
// It panics without modifying the buffer if len(items) > Free().
func (r *RingBuffer[T]) PushSlice(items []T) {
	if len(items) > r.Free() {
		panic("ring: PushSlice exceeds free space")
	}
	if len(items) == 0 {
		return
	}

	r.leaveEmpty()

	// Everything from tail up to head (wrapping) is free and len(items)
	// fits in it, so at most two copies are needed.
	n := copy(r.slots[r.tail:], items)
	copy(r.slots, items[n:])

	r.tail += len(items)
	if r.tail >= len(r.slots) {
		r.tail -= len(r.slots)
	}

	r.recordPush(len(items))
}

// Pop removes and returns the front element. It panics if the buffer is
// empty. Popping the last element restores the canonical empty state, so
// the next Push writes at the start of storage.
func (r *RingBuffer[T]) Pop() T {
	if r.Empty() {
		panic("ring: Pop on empty buffer")
	}

	var zero T
	item := r.slots[r.head]
	r.slots[r.head] = zero
	r.head = r.next(r.head)

	if r.head == r.tail {
		r.head, r.tail = 0, len(r.slots)
	}

	r.stats.pop()
	if r.metrics != nil {
		r.metrics.recordPop(r.Size(), len(r.slots))
	}

	return item
}

// Peek returns the front element without removing it.
func (r *RingBuffer[T]) Peek() (T, bool) {
	if r.Empty() {
		var zero T
		return zero, false
	}
	return r.slots[r.head], true
}

// Data returns the live elements as contiguous runs of storage in
// front-to-back order: none when empty, one when the live region does not
// wrap, two when it does. The slices alias the buffer and are only valid
// until the next call that modifies it. Their capacity is clipped, so
// appending to them never overwrites a slot.
func (r *RingBuffer[T]) Data() [][]T {
	switch {
	case r.Empty():
		return nil
	case r.head < r.tail:
		return [][]T{r.slots[r.head:r.tail:r.tail]}
	case r.tail == 0:
		return [][]T{r.slots[r.head:]}
	default:
		return [][]T{r.slots[r.head:], r.slots[:r.tail:r.tail]}
	}
}

// Clear destroys every live element, oldest first, handing each to the
// discard callback. Capacity is unchanged.
func (r *RingBuffer[T]) Clear() {
	size := r.Size()
	if size == 0 {
		return
	}

	var zero T
	discard := r.options().discard
	for i, pos := 0, r.head; i < size; i, pos = i+1, r.next(pos) {
		item := r.slots[pos]
		r.slots[pos] = zero
		if discard != nil {
			discard(item)
		}
	}

	r.head, r.tail = 0, len(r.slots)

	r.stats.discard(size)
	if r.metrics != nil {
		r.metrics.recordDiscard(size, 0, len(r.slots))
	}
}

// Close destroys every live element, releases the storage and removes
// the buffer's metrics from the registry. The buffer is left as a valid
// zero-capacity buffer and may be reused after a Reserve.
func (r *RingBuffer[T]) Close() error {
	if err := r.Reserve(0); err != nil {
		return err
	}
	if r.metrics != nil {
		r.metrics.unregister(r.opts.metricsReg, r.opts.metricsPrefix)
		r.metrics = nil
	}
	return nil
}

// Stats returns the buffer's operation counters.
func (r *RingBuffer[T]) Stats() *Statistics {
	return &r.stats
}

func (r *RingBuffer[T]) leaveEmpty() {
	if r.tail == len(r.slots) {
		r.head, r.tail = 0, 0
	}
}

func (r *RingBuffer[T]) next(pos int) int {
	pos++
	if pos == len(r.slots) {
		return 0
	}
	return pos
}

func (r *RingBuffer[T]) prev(pos int) int {
	if pos == 0 {
		return len(r.slots) - 1
	}
	return pos - 1
}

func (r *RingBuffer[T]) recordPush(n int) {
	size := r.Size()
	r.stats.push(n, size)
	if r.metrics != nil {
		r.metrics.recordPush(n, size, len(r.slots))
	}
}

func (r *RingBuffer[T]) options() *options[T] {
	if r.opts == nil {
		r.opts = applyOptions[T]()
	}
	return r.opts
}

func (r *RingBuffer[T]) logger() *slog.Logger {
	if l := r.options().logger; l != nil {
		return l
	}
	return slog.Default()
}
