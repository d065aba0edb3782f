package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_Frozen(t *testing.T) {
	c := NewClock(Epoch, 0)

	assert.Equal(t, Epoch, c.Now())
	assert.Equal(t, Epoch, c.Now())
}

func TestClock_Step(t *testing.T) {
	c := NewClock(Epoch, time.Second)

	assert.Equal(t, Epoch, c.Now())
	assert.Equal(t, Epoch.Add(time.Second), c.Now())

	c.Advance(time.Minute)
	assert.Equal(t, Epoch.Add(time.Minute+2*time.Second), c.Now())

	c.Reset()
	assert.Equal(t, Epoch, c.Now())
}

func TestClock_Concurrent(t *testing.T) {
	c := NewClock(Epoch, time.Millisecond)
	const goroutines = 20
	const calls = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				c.Now()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, Epoch.Add(goroutines*calls*time.Millisecond), c.Now())
}

func TestSequenceRand(t *testing.T) {
	r := NewSequenceRand(42, 7, 1234)

	assert.Equal(t, 42, r.IntN(1000))
	assert.Equal(t, 7, r.IntN(1000))
	assert.Equal(t, 234, r.IntN(1000))
	assert.Equal(t, 42, r.IntN(1000), "cycles")
}

func TestSequenceRand_Empty(t *testing.T) {
	r := NewSequenceRand()
	assert.Equal(t, 0, r.IntN(10))
}
