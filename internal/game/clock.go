package game

import (
	"sync"
	"time"

	"github.com/zyedidia/generic/heap"
)

// Clock supplies the session's notion of "now".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock only moves when told to. Safe for concurrent use.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock returns a clock stopped at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new time.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Set jumps the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// timer is a scheduled callback. Cancelled timers stay queued and are
// dropped when they reach the head.
type timer struct {
	fireAt    time.Time
	seq       uint64
	action    func(now time.Time)
	cancelled bool
}

func (t *timer) Cancel() {
	if t != nil {
		t.cancelled = true
	}
}

// scheduler fires timers in (fireAt, seq) order.
type scheduler struct {
	q   *heap.Heap[*timer]
	seq uint64
}

func timerLess(a, b *timer) bool {
	if a.fireAt.Equal(b.fireAt) {
		return a.seq < b.seq
	}
	return a.fireAt.Before(b.fireAt)
}

func newScheduler() *scheduler {
	return &scheduler{q: heap.New[*timer](timerLess)}
}

func (s *scheduler) at(fireAt time.Time, action func(now time.Time)) *timer {
	s.seq++
	t := &timer{fireAt: fireAt, seq: s.seq, action: action}
	s.q.Push(t)
	return t
}

// run fires every live timer due at or before now. Timers scheduled by an
// action fire in the same call only if they are already due.
func (s *scheduler) run(now time.Time) int {
	fired := 0
	for {
		t, ok := s.q.Peek()
		if !ok || t.fireAt.After(now) {
			return fired
		}
		s.q.Pop()
		if t.cancelled {
			continue
		}
		t.action(now)
		fired++
	}
}

// pending counts timers that have not been cancelled.
func (s *scheduler) pending() int {
	n := 0
	var keep []*timer
	for s.q.Size() > 0 {
		t, _ := s.q.Pop()
		if !t.cancelled {
			n++
			keep = append(keep, t)
		}
	}
	for _, t := range keep {
		s.q.Push(t)
	}
	return n
}

// reset drops every timer.
func (s *scheduler) reset() {
	for s.q.Size() > 0 {
		t, _ := s.q.Pop()
		t.cancelled = true
	}
}
