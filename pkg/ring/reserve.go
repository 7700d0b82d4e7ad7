package ring

import (
	"fmt"

	"github.com/c360/semring/errors"
)

// Reserve changes the capacity to capacity, keeping the order of the
// elements that survive. It is a no-op when the capacity is unchanged.
//
// The surviving elements are moved to the start of new storage, so after
// Reserve the live region never wraps. When capacity < Size(), the
// buffer keeps the capacity oldest elements and destroys the newest
// Size()-capacity, walking back from the tail. Each destroyed element is
// passed to the discard callback, newest first. The callback must not
// call back into the buffer. Reserve(0) destroys everything and
// releases the storage.
//
// New storage is obtained before anything is touched. If the allocator
// fails, or capacity exceeds the configured maximum, Reserve returns a
// fatal error and the buffer is left exactly as it was.
func (r *RingBuffer[T]) Reserve(capacity int) error {
	old := len(r.slots)

	discarded, err := r.reserve(capacity, "Reserve")
	if err != nil {
		r.logger().Warn("ring reserve failed",
			"old_capacity", old,
			"new_capacity", capacity,
			"size", r.Size(),
			"error", err)
		return err
	}
	if old == capacity {
		return nil
	}

	r.stats.resize()
	if r.metrics != nil {
		r.metrics.recordResize(r.Size(), capacity)
	}

	r.logger().Debug("ring reserve",
		"old_capacity", old,
		"new_capacity", capacity,
		"size", r.Size(),
		"discarded", discarded)

	return nil
}

// reserve performs the resize and returns how many elements were destroyed
// to fit. method names the public caller for error context.
func (r *RingBuffer[T]) reserve(capacity int, method string) (int, error) {
	if capacity < 0 {
		return 0, errors.WrapInvalid(
			fmt.Errorf("%w: %d", errors.ErrInvalidCapacity, capacity),
			"RingBuffer", method, "validate capacity")
	}
	if capacity == len(r.slots) {
		return 0, nil
	}

	opts := r.options()
	if opts.maxCapacity > 0 && capacity > opts.maxCapacity {
		r.allocationFailed()
		return 0, errors.WrapFatal(
			fmt.Errorf("%w: %d > %d", errors.ErrCapacityExceeded, capacity, opts.maxCapacity),
			"RingBuffer", method, "check capacity limit")
	}

	var slots []T
	if capacity > 0 {
		allocated, err := opts.allocator.Allocate(capacity)
		if err == nil && len(allocated) < capacity {
			opts.allocator.Free(allocated)
			err = fmt.Errorf("%w: allocator returned %d of %d slots",
				errors.ErrResourceExhausted, len(allocated), capacity)
		}
		if err != nil {
			r.allocationFailed()
			return 0, errors.WrapFatal(err, "RingBuffer", method, "allocate storage")
		}
		slots = allocated[:capacity:capacity]
	}

	size := r.Size()
	discarded := 0
	if size > capacity {
		discarded = size - capacity
		r.truncate(discarded)
		size = capacity
	}

	r.relocate(slots, size)
	if r.slots != nil {
		opts.allocator.Free(r.slots)
	}

	r.slots = slots
	r.head = 0
	switch size {
	case 0:
		r.tail = capacity
	case capacity:
		r.tail = 0
	default:
		r.tail = size
	}

	if discarded > 0 {
		r.stats.discard(discarded)
		if r.metrics != nil {
			r.metrics.recordDiscard(discarded, size, capacity)
		}
	}

	return discarded, nil
}

// truncate destroys the n newest elements, walking back from the tail.
// The caller guarantees 0 < n <= Size(). head and tail may coincide
// afterwards even though the buffer is logically empty, so the caller
// must not consult Size until the state is rebuilt.
func (r *RingBuffer[T]) truncate(n int) {
	var zero T
	discard := r.options().discard

	for i := 0; i < n; i++ {
		r.tail = r.prev(r.tail)
		item := r.slots[r.tail]
		r.slots[r.tail] = zero
		if discard != nil {
			discard(item)
		}
	}
}

// relocate moves count elements starting at head into dst front-to-back
// and zeroes the source slots.
func (r *RingBuffer[T]) relocate(dst []T, count int) {
	if count == 0 {
		return
	}

	first := min(count, len(r.slots)-r.head)
	copy(dst, r.slots[r.head:r.head+first])
	clear(r.slots[r.head : r.head+first])

	rest := count - first
	copy(dst[first:], r.slots[:rest])
	clear(r.slots[:rest])
}

func (r *RingBuffer[T]) allocationFailed() {
	r.stats.allocationFailure()
	if r.metrics != nil {
		r.metrics.recordAllocationFailure()
	}
}
