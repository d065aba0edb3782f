// Package testutil holds deterministic stand-ins for time and randomness.
package testutil

import (
	"sync"
	"time"
)

// Epoch is the default start of a test clock: 2024-05-01 09:00 UTC.
var Epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// Clock is a wall clock that only moves when told to.
//
// With a zero step Now always returns the same instant. With a positive step
// every call to Now returns the current instant and then advances it.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu    sync.Mutex
	start time.Time
	now   time.Time
	step  time.Duration
}

// NewClock creates a clock at start that advances step per Now call.
func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{start: start, now: start, step: step}
}

// Now returns the current instant. Its signature matches time.Now so it
// can be passed wherever a clock function is accepted.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Reset moves the clock back to its start.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
