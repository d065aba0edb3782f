package connectivity

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Source is the runtime's view of network reachability.
type Source interface {
	// Online reports the current state.
	Online() bool
	// Subscribe returns a channel that receives every change of state and a
	// function that ends the subscription.
	Subscribe() (<-chan bool, func())
}

// Signal is a Source whose state is set by its owner. It publishes only
// actual changes.
type Signal struct {
	mu     sync.Mutex
	online bool
	subs   map[int]chan bool
	next   int
}

// NewSignal returns a Signal in the given initial state.
func NewSignal(online bool) *Signal {
	return &Signal{online: online, subs: make(map[int]chan bool)}
}

// Online implements Source.
func (s *Signal) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Subscribe implements Source. A subscriber that falls behind only keeps
// the most recent state.
func (s *Signal) Subscribe() (<-chan bool, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan bool, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Set changes the state and notifies subscribers when it differs.
func (s *Signal) Set(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.online == online {
		return
	}
	s.online = online
	for _, ch := range s.subs {
		// Drop a stale unread value so the latest state always lands.
		select {
		case <-ch:
		default:
		}
		ch <- online
	}
}

// Prober dials addr to decide reachability.
type Prober struct {
	Addr    string
	Timeout time.Duration
}

// Probe reports whether a TCP connection to Addr succeeds.
func (p Prober) Probe(ctx context.Context) bool {
	d := net.Dialer{Timeout: p.Timeout}
	conn, err := d.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		slog.Debug("connectivity probe failed", "addr", p.Addr, "error", err)
		return false
	}
	conn.Close()
	return true
}

// Checker decides reachability.
type Checker interface {
	Probe(ctx context.Context) bool
}

// CheckFunc adapts a function to Checker.
type CheckFunc func(ctx context.Context) bool

// Probe implements Checker.
func (f CheckFunc) Probe(ctx context.Context) bool { return f(ctx) }

// ProbeSource is a Signal driven by a periodic Checker.
type ProbeSource struct {
	*Signal
	prober   Checker
	interval time.Duration
}

// NewProbeSource probes once to set the initial state.
func NewProbeSource(ctx context.Context, prober Checker, interval time.Duration) *ProbeSource {
	return &ProbeSource{
		Signal:   NewSignal(prober.Probe(ctx)),
		prober:   prober,
		interval: interval,
	}
}

// Run probes every interval until ctx is done.
func (p *ProbeSource) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Set(p.prober.Probe(ctx))
		}
	}
}
