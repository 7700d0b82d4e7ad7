package ring

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/c360/semring/errors"
)

// Allocator supplies and takes back the storage behind a RingBuffer.
//
// Allocate must return a slice of at least n zeroed elements or an error.
// Free receives storage the buffer no longer uses; every element in it
// has already been reset to the zero value.
type Allocator[T any] interface {
	Allocate(n int) ([]T, error)
	Free(slots []T)
}

// HeapAllocator allocates with make and leaves freed storage to the
// garbage collector. It is the default allocator.
type HeapAllocator[T any] struct{}

// Allocate returns make([]T, n). A request too large to represent is
// reported as errors.ErrResourceExhausted instead of panicking. An actual
// out-of-memory condition is fatal to the Go runtime and cannot be
// reported.
func (HeapAllocator[T]) Allocate(n int) (slots []T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			rtErr, ok := rec.(runtime.Error)
			if !ok {
				panic(rec)
			}
			slots, err = nil, fmt.Errorf("%w: %v", errors.ErrResourceExhausted, rtErr)
		}
	}()

	return make([]T, n), nil
}

// Free is a no-op.
func (HeapAllocator[T]) Free([]T) {}

// BudgetAllocator hands out storage from a fixed slot budget shared by every
// buffer that uses it, e.g. all send buffers of one server. It is safe for
// concurrent use.
type BudgetAllocator[T any] struct {
	mu     sync.Mutex
	budget int
	used   int
	heap   HeapAllocator[T]
}

// NewBudgetAllocator creates an allocator that never has more than budget
// slots outstanding.
func NewBudgetAllocator[T any](budget int) *BudgetAllocator[T] {
	return &BudgetAllocator[T]{budget: budget}
}

// Allocate reserves n slots of the budget, failing with
// errors.ErrResourceExhausted when fewer than n remain.
func (a *BudgetAllocator[T]) Allocate(n int) ([]T, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n > a.budget-a.used {
		return nil, fmt.Errorf("%w: need %d slots, %d of %d available",
			errors.ErrResourceExhausted, n, a.budget-a.used, a.budget)
	}

	slots, err := a.heap.Allocate(n)
	if err != nil {
		return nil, err
	}
	a.used += n
	return slots, nil
}

// Free returns len(slots) to the budget.
func (a *BudgetAllocator[T]) Free(slots []T) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.used -= len(slots)
	if a.used < 0 {
		a.used = 0
	}
}

// Used returns the number of slots currently handed out.
func (a *BudgetAllocator[T]) Used() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

// Available returns the number of slots that can still be allocated.
func (a *BudgetAllocator[T]) Available() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.budget - a.used
}
