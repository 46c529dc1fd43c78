package scanning

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anstrom/portprobe/internal/metrics"
)

// ProbeLimiter bounds the number of probes in flight. Each slot is keyed by
// the port it probes.
type ProbeLimiter struct {
	capacity  int
	semaphore chan struct{}
	active    map[int]time.Time
	mutex     sync.Mutex
	closed    bool
	metrics   metrics.Recorder
}

// NewProbeLimiter creates a limiter with capacity slots. A nil recorder
// disables the in-flight gauge.
func NewProbeLimiter(capacity int, recorder metrics.Recorder) *ProbeLimiter {
	if capacity <= 0 {
		capacity = 1
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	return &ProbeLimiter{
		capacity:  capacity,
		semaphore: make(chan struct{}, capacity),
		active:    make(map[int]time.Time),
		metrics:   recorder,
	}
}

// Acquire blocks until a slot is free for port or ctx is done. A done context
// always wins, even when a slot is free.
func (l *ProbeLimiter) Acquire(ctx context.Context, port int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mutex.Lock()
	if l.closed {
		l.mutex.Unlock()
		return fmt.Errorf("probe limiter is closed")
	}
	l.mutex.Unlock()

	select {
	case l.semaphore <- struct{}{}:
		l.mutex.Lock()
		l.active[port] = time.Now()
		l.metrics.SetActiveProbes(len(l.active))
		l.mutex.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the slot held for port. Releasing a port that holds no slot
// is a no-op.
func (l *ProbeLimiter) Release(port int) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if _, exists := l.active[port]; !exists {
		return
	}
	delete(l.active, port)
	l.metrics.SetActiveProbes(len(l.active))

	select {
	case <-l.semaphore:
	default:
	}
}

// Active returns the number of probes holding a slot.
func (l *ProbeLimiter) Active() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.active)
}

// Available returns the number of free slots.
func (l *ProbeLimiter) Available() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.capacity - len(l.active)
}

// Capacity returns the configured number of slots.
func (l *ProbeLimiter) Capacity() int {
	return l.capacity
}

// Close rejects further acquisitions. Slots already held stay valid until
// released.
func (l *ProbeLimiter) Close() {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.closed = true
}
