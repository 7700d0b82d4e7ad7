package ring

import (
	"bytes"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semring/errors"
)

func TestReserve_Cases(t *testing.T) {
	tests := []struct {
		name          string
		build         func(t *testing.T, opts ...Option[int]) *RingBuffer[int]
		capacity      int
		wantContents  []int
		wantDiscarded []int
	}{
		{
			name: "grow unwrapped",
			build: func(t *testing.T, opts ...Option[int]) *RingBuffer[int] {
				r, err := New[int](5, opts...)
				require.NoError(t, err)
				r.PushSlice([]int{0, 1, 2})
				return r
			},
			capacity:     8,
			wantContents: []int{0, 1, 2},
		},
		{
			name:         "grow wrapped",
			build:        wrapped,
			capacity:     10,
			wantContents: []int{3, 4, 5, 6},
		},
		{
			name:         "shrink to exactly size",
			build:        wrapped,
			capacity:     4,
			wantContents: []int{3, 4, 5, 6},
		},
		{
			name: "shrink below size unwrapped",
			build: func(t *testing.T, opts ...Option[int]) *RingBuffer[int] {
				r, err := New[int](8, opts...)
				require.NoError(t, err)
				r.PushSlice([]int{0, 1, 2, 3, 4, 5})
				return r
			},
			capacity:      3,
			wantContents:  []int{0, 1, 2},
			wantDiscarded: []int{5, 4, 3},
		},
		{
			name:          "shrink below size wrapped keeps both runs",
			build:         wrapped,
			capacity:      3,
			wantContents:  []int{3, 4, 5},
			wantDiscarded: []int{6},
		},
		{
			name:          "shrink below size wrapped into first run",
			build:         wrapped,
			capacity:      1,
			wantContents:  []int{3},
			wantDiscarded: []int{6, 5, 4},
		},
		{
			name: "shrink full buffer with head in the middle",
			build: func(t *testing.T, opts ...Option[int]) *RingBuffer[int] {
				r, err := New[int](4, opts...)
				require.NoError(t, err)
				r.PushSlice([]int{0, 1, 2, 3})
				r.Pop()
				r.Pop()
				r.PushSlice([]int{4, 5})
				require.True(t, r.Full())
				require.Equal(t, 2, r.head)
				return r
			},
			capacity:      2,
			wantContents:  []int{2, 3},
			wantDiscarded: []int{5, 4},
		},
		{
			name:          "to zero",
			build:         wrapped,
			capacity:      0,
			wantDiscarded: []int{6, 5, 4, 3},
		},
		{
			name: "empty buffer",
			build: func(t *testing.T, opts ...Option[int]) *RingBuffer[int] {
				r, err := New[int](4, opts...)
				require.NoError(t, err)
				return r
			},
			capacity: 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var discarded []int
			r := tc.build(t, WithDiscardCallback[int](func(item int) {
				discarded = append(discarded, item)
			}))

			require.NoError(t, r.Reserve(tc.capacity))

			assert.Equal(t, tc.capacity, r.Capacity())
			assert.Equal(t, len(tc.wantContents), r.Size())
			assert.Equal(t, tc.wantContents, contents(r))
			assert.Equal(t, tc.wantDiscarded, discarded)
			assert.LessOrEqual(t, len(r.Data()), 1, "live region should not wrap after Reserve")
			assert.Equal(t, 0, r.head)
			assert.Equal(t, len(tc.wantContents) == tc.capacity, r.Full())

			// Pop order is unchanged and the buffer keeps working.
			assert.Equal(t, tc.wantContents, drain(r))
			if tc.capacity > 0 {
				r.Push(42)
				assert.Equal(t, 42, r.Pop())
			}
		})
	}
}

func TestReserve_SameCapacityIsNoop(t *testing.T) {
	r := wrapped(t)
	slots := r.slots

	require.NoError(t, r.Reserve(5))

	assert.Equal(t, 3, r.head, "no-op Reserve should not relocate")
	assert.Same(t, &slots[0], &r.slots[0])
	assert.Equal(t, int64(0), r.Stats().Resizes())
}

func TestReserve_Negative(t *testing.T) {
	r := wrapped(t)

	err := r.Reserve(-3)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.ErrorIs(t, err, errors.ErrInvalidCapacity)
	assert.Equal(t, []int{3, 4, 5, 6}, contents(r))
}

func TestReserve_ZeroesOldStorage(t *testing.T) {
	r, err := New[*int](3)
	require.NoError(t, err)

	values := []int{1, 2, 3}
	for i := range values {
		r.Push(&values[i])
	}
	old := r.slots

	require.NoError(t, r.Reserve(2))

	assert.Equal(t, []*int{nil, nil, nil}, old, "relocated and truncated slots should be zeroed")
	assert.Equal(t, 1, *r.Pop())
	assert.Equal(t, 2, *r.Pop())
}

func TestReserve_MaxCapacity(t *testing.T) {
	r, err := New[int](4, WithMaxCapacity[int](8))
	require.NoError(t, err)
	r.PushSlice([]int{1, 2, 3})

	require.NoError(t, r.Reserve(8))

	err = r.Reserve(9)
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
	assert.ErrorIs(t, err, errors.ErrCapacityExceeded)
	assert.Equal(t, 8, r.Capacity())
	assert.Equal(t, []int{1, 2, 3}, contents(r))
	assert.Equal(t, int64(1), r.Stats().AllocationFailures())

	_, err = New[int](9, WithMaxCapacity[int](8))
	assert.ErrorIs(t, err, errors.ErrCapacityExceeded)
}

func TestReserve_AllocationFailureLeavesBufferIntact(t *testing.T) {
	budget := NewBudgetAllocator[int](10)

	var discarded int
	r, err := New[int](8,
		WithAllocator[int](budget),
		WithDiscardCallback[int](func(int) { discarded++ }),
	)
	require.NoError(t, err)
	assert.Equal(t, 8, budget.Used())

	for i := 0; i < 8; i++ {
		r.Push(i)
	}
	r.Pop()
	r.Push(8) // wrap

	before := contents(r)
	headBefore, tailBefore := r.head, r.tail

	// The old storage is still held while the new one is requested, so
	// even shrinking to 3 slots exceeds the budget.
	for _, capacity := range []int{16, 3} {
		err = r.Reserve(capacity)
		require.Error(t, err)
		assert.True(t, errors.IsFatal(err))
		assert.ErrorIs(t, err, errors.ErrResourceExhausted)

		assert.Equal(t, 8, r.Capacity())
		assert.Equal(t, before, contents(r))
		assert.Equal(t, headBefore, r.head)
		assert.Equal(t, tailBefore, r.tail)
		assert.Equal(t, 0, discarded, "nothing may be destroyed when allocation fails")
	}
	assert.Equal(t, int64(2), r.Stats().AllocationFailures())

	require.NoError(t, r.Reserve(2))
	assert.Equal(t, 2, budget.Used(), "old storage should be returned to the budget")
	assert.Equal(t, []int{1, 2}, drain(r))
	assert.Equal(t, 6, discarded)
}

// shortAllocator returns fewer slots than requested.
type shortAllocator struct {
	freed int
}

func (a *shortAllocator) Allocate(n int) ([]int, error) { return make([]int, n-1), nil }
func (a *shortAllocator) Free(slots []int)              { a.freed += len(slots) }

func TestReserve_ShortAllocation(t *testing.T) {
	alloc := &shortAllocator{}

	r, err := New[int](0, WithAllocator[int](alloc))
	require.NoError(t, err)

	err = r.Reserve(4)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrResourceExhausted)
	assert.Equal(t, 3, alloc.freed, "rejected storage should be handed back")
	assert.Equal(t, 0, r.Capacity())
}

func TestReserve_Logging(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r, err := New[int](4, WithLogger[int](logger))
	require.NoError(t, err)
	r.PushSlice([]int{1, 2, 3})

	require.NoError(t, r.Reserve(2))
	assert.Contains(t, out.String(), "ring reserve")
	assert.Contains(t, out.String(), "old_capacity=4")
	assert.Contains(t, out.String(), "new_capacity=2")
	assert.Contains(t, out.String(), "discarded=1")

	out.Reset()
	require.Error(t, r.Reserve(-1))
	assert.Contains(t, out.String(), "level=WARN")
}

// TestReserve_MatchesModel drives random pushes, pops and resizes against a
// plain slice and checks contents and accounting after every step.
func TestReserve_MatchesModel(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	var discarded int
	r, err := New[int](4, WithDiscardCallback[int](func(int) { discarded++ }))
	require.NoError(t, err)

	var model []int
	pushes, pops, next := 0, 0, 0

	for step := 0; step < 5000; step++ {
		switch op := rng.Intn(10); {
		case op < 5:
			if r.Full() {
				continue
			}
			r.Push(next)
			model = append(model, next)
			next++
			pushes++
		case op < 8:
			if r.Empty() {
				continue
			}
			require.Equal(t, model[0], r.Pop(), "step %d", step)
			model = model[1:]
			pops++
		case op < 9:
			n := rng.Intn(r.Free() + 1)
			batch := make([]int, n)
			for i := range batch {
				batch[i] = next
				next++
			}
			r.PushSlice(batch)
			model = append(model, batch...)
			pushes += n
		default:
			capacity := rng.Intn(13)
			require.NoError(t, r.Reserve(capacity))
			if capacity < len(model) {
				model = model[:capacity]
			}
			require.Equal(t, capacity, r.Capacity())
		}

		require.Equal(t, len(model), r.Size(), "step %d", step)
		if len(model) == 0 {
			require.Nil(t, r.Data(), "step %d", step)
		} else {
			require.Equal(t, model, contents(r), "step %d", step)
		}
		require.Equal(t, pushes, pops+discarded+r.Size(), "every pushed element leaves exactly once")
	}

	assert.Equal(t, int64(pushes), r.Stats().Pushes())
	assert.Equal(t, int64(pops), r.Stats().Pops())
	assert.Equal(t, int64(discarded), r.Stats().Discards())
}
