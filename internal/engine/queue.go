package engine

// wakeSignal wakes the background loop.
//
// The buffer of one coalesces triggers: any number of Notify calls made
// while the loop is busy result in a single extra pass.
type wakeSignal struct {
	ch chan struct{}
}

func newWakeSignal() *wakeSignal {
	return &wakeSignal{ch: make(chan struct{}, 1)}
}

// Notify records a wake-up. Never blocks.
func (s *wakeSignal) Notify() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Wait returns the channel to select on.
func (s *wakeSignal) Wait() <-chan struct{} {
	return s.ch
}
