package ring

import (
	"sync/atomic"
	"time"
)

// Statistics counts buffer operations. The buffer itself is single-threaded,
// but the counters are atomic so a monitoring goroutine may read them while
// the owner keeps working.
type Statistics struct {
	pushes             atomic.Int64
	pops               atomic.Int64
	discards           atomic.Int64
	resizes            atomic.Int64
	allocationFailures atomic.Int64
	maxSize            atomic.Int64
	startTime          atomic.Int64 // unix nanoseconds, zero when never started
}

func (s *Statistics) start() {
	s.startTime.Store(time.Now().UnixNano())
}

func (s *Statistics) push(n, size int) {
	s.pushes.Add(int64(n))
	for {
		current := s.maxSize.Load()
		if int64(size) <= current || s.maxSize.CompareAndSwap(current, int64(size)) {
			return
		}
	}
}

func (s *Statistics) pop() {
	s.pops.Add(1)
}

func (s *Statistics) discard(n int) {
	s.discards.Add(int64(n))
}

func (s *Statistics) resize() {
	s.resizes.Add(1)
}

func (s *Statistics) allocationFailure() {
	s.allocationFailures.Add(1)
}

// Pushes returns the total number of elements pushed.
func (s *Statistics) Pushes() int64 {
	return s.pushes.Load()
}

// Pops returns the total number of elements popped.
func (s *Statistics) Pops() int64 {
	return s.pops.Load()
}

// Discards returns the number of elements destroyed by Reserve truncation
// or Clear.
func (s *Statistics) Discards() int64 {
	return s.discards.Load()
}

// Resizes returns the number of Reserve calls that changed the capacity.
func (s *Statistics) Resizes() int64 {
	return s.resizes.Load()
}

// AllocationFailures returns the number of resizes refused for lack of storage.
func (s *Statistics) AllocationFailures() int64 {
	return s.allocationFailures.Load()
}

// MaxSize returns the largest number of live elements observed after a push.
func (s *Statistics) MaxSize() int64 {
	return s.maxSize.Load()
}

// Uptime returns the time since the buffer was created with New.
// It is zero for a buffer used from its zero value.
func (s *Statistics) Uptime() time.Duration {
	started := s.startTime.Load()
	if started == 0 {
		return 0
	}
	return time.Since(time.Unix(0, started))
}

// Throughput returns the average number of pushes per second.
func (s *Statistics) Throughput() float64 {
	elapsed := s.Uptime()
	if elapsed <= 0 {
		return 0.0
	}
	return float64(s.Pushes()) / elapsed.Seconds()
}

// DiscardRate returns the fraction of pushed elements that were destroyed
// rather than popped (0.0 to 1.0).
func (s *Statistics) DiscardRate() float64 {
	pushes := s.Pushes()
	if pushes == 0 {
		return 0.0
	}
	return float64(s.Discards()) / float64(pushes)
}

// Reset zeroes all counters and restarts the uptime clock.
func (s *Statistics) Reset() {
	s.pushes.Store(0)
	s.pops.Store(0)
	s.discards.Store(0)
	s.resizes.Store(0)
	s.allocationFailures.Store(0)
	s.maxSize.Store(0)
	s.start()
}

// StatsSummary is a point-in-time copy of the statistics.
type StatsSummary struct {
	Pushes             int64         `json:"pushes"`
	Pops               int64         `json:"pops"`
	Discards           int64         `json:"discards"`
	Resizes            int64         `json:"resizes"`
	AllocationFailures int64         `json:"allocation_failures"`
	MaxSize            int64         `json:"max_size"`
	Throughput         float64       `json:"throughput"`
	DiscardRate        float64       `json:"discard_rate"`
	Uptime             time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Pushes:             s.Pushes(),
		Pops:               s.Pops(),
		Discards:           s.Discards(),
		Resizes:            s.Resizes(),
		AllocationFailures: s.AllocationFailures(),
		MaxSize:            s.MaxSize(),
		Throughput:         s.Throughput(),
		DiscardRate:        s.DiscardRate(),
		Uptime:             s.Uptime(),
	}
}
