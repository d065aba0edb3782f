// Package connectivity tracks whether the register can reach the remote
// service and how many sales are waiting in the local queue, and starts a
// sync pass whenever the register comes back online.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Counter reports the size of the local queue.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Syncer runs one sync pass.
type Syncer interface {
	Sync(ctx context.Context) bool
}

// Monitor holds the online flag and the pending count.
//
// Transitions come from a Source through Run, or directly through
// Transition. Going online starts a sync pass on its own goroutine; Wait
// blocks until every such pass has returned.
type Monitor struct {
	src     Source
	counter Counter
	syncer  Syncer

	online  atomic.Bool
	pending atomic.Int64

	mu        sync.Mutex
	listeners []func(online bool)

	wg sync.WaitGroup
}

// NewMonitor creates a Monitor. Call Init before use.
func NewMonitor(src Source, counter Counter, syncer Syncer) *Monitor {
	return &Monitor{src: src, counter: counter, syncer: syncer}
}

// OnTransition registers fn to run after every applied transition.
func (m *Monitor) OnTransition(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Init reads the current state from the source and the queue.
func (m *Monitor) Init(ctx context.Context) {
	m.online.Store(m.src.Online())
	m.RefreshPending(ctx)
}

// Online reports the last observed state.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Pending returns the last observed queue size.
func (m *Monitor) Pending() int {
	return int(m.pending.Load())
}

// RefreshPending re-reads the queue size. On failure the previous value is
// kept.
func (m *Monitor) RefreshPending(ctx context.Context) {
	n, err := m.counter.Count(ctx)
	if err != nil {
		slog.Warn("pending count refresh failed", "error", err)
		return
	}
	m.pending.Store(int64(n))
}

// Transition applies a state change. Going online starts a sync pass in the
// background.
func (m *Monitor) Transition(ctx context.Context, online bool) {
	m.online.Store(online)
	slog.Info("connectivity changed", "online", online, "pending", m.Pending())

	if online {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if !m.syncer.Sync(ctx) {
				slog.Warn("sync after reconnect incomplete")
			}
		}()
	}

	m.mu.Lock()
	listeners := append([]func(bool){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(online)
	}
}

// Run applies every change published by the source until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	changes, cancel := m.src.Subscribe()
	defer cancel()

	// Catch a change that happened between Init and Subscribe.
	if now := m.src.Online(); now != m.Online() {
		m.Transition(ctx, now)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case online, ok := <-changes:
			if !ok {
				return nil
			}
			if online == m.Online() {
				continue
			}
			m.Transition(ctx, online)
		}
	}
}

// Wait blocks until every sync pass started by a transition has returned.
func (m *Monitor) Wait() {
	m.wg.Wait()
}
