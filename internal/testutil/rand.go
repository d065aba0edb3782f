package testutil

import "sync"

// SequenceRand replays a fixed list of numbers in place of a random source.
//
// IntN returns the next value modulo n, cycling through the list. With an
// empty list it always returns 0.
//
// Thread-safety: safe for concurrent use.
type SequenceRand struct {
	mu   sync.Mutex
	vals []int
	i    int
}

// NewSequenceRand creates a source that yields vals in order.
func NewSequenceRand(vals ...int) *SequenceRand {
	return &SequenceRand{vals: vals}
}

// IntN returns the next value in [0, n). Its signature matches
// math/rand/v2.IntN.
func (r *SequenceRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.vals) == 0 || n <= 0 {
		return 0
	}
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return ((v % n) + n) % n
}
