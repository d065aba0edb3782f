package engine

import "sync/atomic"

// Clock numbers sync passes.
//
// Every pass gets a strictly increasing number so log lines and reports of
// the same pass can be correlated.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next pass number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last pass number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
