package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock only moves when Advance is called. AfterFunc callbacks run
// synchronously inside Advance, in deadline order.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []*waiter
}

type waiter struct {
	deadline time.Time
	interval time.Duration // > 0 for tickers
	ch       chan time.Time
	fn       func()
	stopped  bool
}

// NewFake returns a FakeClock frozen at start.
func NewFake(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker interval")
	}
	ch := make(chan time.Time, 1)
	w := &waiter{interval: d, ch: ch}

	c.mu.Lock()
	w.deadline = c.now.Add(d)
	c.pending = append(c.pending, w)
	c.mu.Unlock()

	return &Ticker{C: ch, stop: func() { c.cancel(w) }}
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	w := &waiter{fn: f}

	c.mu.Lock()
	w.deadline = c.now.Add(d)
	c.pending = append(c.pending, w)
	c.mu.Unlock()

	return &Timer{stop: func() bool { return c.cancel(w) }}
}

func (c *FakeClock) cancel(w *waiter) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.pending {
		if p == w {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			w.stopped = true
			return true
		}
	}
	return false
}

// Advance moves time forward by d, firing every waiter whose deadline is
// reached. A ticker spanning several intervals fires once per interval;
// sends never block.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now
	c.mu.Unlock()

	for {
		due := c.popDue(target)
		if due == nil {
			return
		}
		if due.fn != nil {
			due.fn()
			continue
		}
		select {
		case due.ch <- due.deadline:
		default:
		}
	}
}

// popDue removes and returns the earliest waiter due at or before target,
// rescheduling tickers.
func (c *FakeClock) popDue(target time.Time) *waiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	sort.SliceStable(c.pending, func(i, j int) bool {
		return c.pending[i].deadline.Before(c.pending[j].deadline)
	})
	if len(c.pending) == 0 || c.pending[0].deadline.After(target) {
		return nil
	}

	w := c.pending[0]
	fired := *w
	if w.interval > 0 {
		w.deadline = w.deadline.Add(w.interval)
	} else {
		c.pending = c.pending[1:]
	}
	return &fired
}

// PendingCount returns the number of live timers and tickers.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
