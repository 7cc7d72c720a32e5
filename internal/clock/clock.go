// Package clock abstracts wall time and periodic ticks so the launcher and
// the in-host window poll can be driven deterministically in tests.
package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// Clock provides the current time and tickers.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTicker returns a ticker firing every d.
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks on C until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock implements Clock using the system time.
type RealClock struct{}

// Now returns the current system time.
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// NewTicker wraps time.NewTicker.
func (c *RealClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// FakeClock implements Clock with a manually advanced time for testing.
// Tickers created from a FakeClock fire when Advance crosses their period.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	tickers []*fakeTicker
}

// NewFakeClock creates a new FakeClock with the given time.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t}
}

// Now returns the fixed time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Set updates the fixed time without firing tickers.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// NewTicker returns a ticker driven by Advance.
func (c *FakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTicker{
		ch:     make(chan time.Time, 1),
		period: d,
		next:   c.current.Add(d),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Advance moves the time forward by d, firing every ticker whose next tick
// falls inside the window. A ticker that is not drained drops ticks, like
// time.Ticker does.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.current.Add(d)
	for _, t := range c.tickers {
		if t.stopped.Load() {
			continue
		}
		for !t.next.After(c.current) {
			select {
			case t.ch <- t.next:
			default:
			}
			t.next = t.next.Add(t.period)
		}
	}
}

type fakeTicker struct {
	ch      chan time.Time
	period  time.Duration
	next    time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() { t.stopped.Store(true) }
