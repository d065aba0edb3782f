package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/kasir/internal/domain"
	"github.com/roach88/kasir/internal/notify"
)

// DefaultInterval is the default retry interval of the background loop.
const DefaultInterval = 30 * time.Second

// Queue is the local queue of pending sales.
type Queue interface {
	GetAll(ctx context.Context) ([]domain.PendingTransaction, error)
	Remove(ctx context.Context, localID int64) error
}

// Poster writes one sale to the remote service.
type Poster interface {
	Post(ctx context.Context, req domain.TransactionRequest) (*domain.CommittedTransaction, error)
}

// Connectivity reports whether the remote service is reachable.
type Connectivity interface {
	Online() bool
}

// Report summarizes one sync pass.
type Report struct {
	Pass      int64   `json:"pass"`
	Attempted int     `json:"attempted"`
	Synced    int     `json:"synced"`
	Failed    int     `json:"failed"`
	Complete  bool    `json:"complete"`
	Errors    []error `json:"-"`
}

// Engine is the sync engine.
type Engine struct {
	queue    Queue
	poster   Poster
	conn     Connectivity
	clock    *Clock
	group    singleflight.Group
	wake     *wakeSignal
	interval time.Duration

	mu    sync.Mutex
	hooks []func(context.Context, Report)
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithInterval sets how often the background loop retries a non-empty
// queue. Zero disables the ticker; the loop then only runs on Trigger.
func WithInterval(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.interval = d
	}
}

// WithNotifier emits a toast after every pass that synced something or
// left failures behind.
func WithNotifier(n notify.Notifier, loc *notify.Localizer) EngineOption {
	return func(e *Engine) {
		e.hooks = append(e.hooks, func(_ context.Context, r Report) {
			switch {
			case !r.Complete:
				n.Notify(loc.SyncPartial(r.Attempted - r.Synced))
			case r.Synced > 0:
				n.Notify(loc.Synced(r.Synced))
			}
		})
	}
}

// New creates an Engine.
func New(q Queue, p Poster, conn Connectivity, opts ...EngineOption) *Engine {
	e := &Engine{
		queue:    q,
		poster:   p,
		conn:     conn,
		clock:    NewClock(),
		wake:     newWakeSignal(),
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnPass registers fn to run after every pass, in registration order.
func (e *Engine) OnPass(fn func(context.Context, Report)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooks = append(e.hooks, fn)
}

// Passes returns the number of passes run so far.
func (e *Engine) Passes() int64 {
	return e.clock.Current()
}

// Sync runs a pass and reports whether the queue was fully drained.
// Offline it returns false without touching the queue.
func (e *Engine) Sync(ctx context.Context) bool {
	if !e.conn.Online() {
		slog.Debug("sync skipped: offline")
		return false
	}
	r, err := e.pass(ctx)
	return err == nil && r.Complete
}

// SyncNow runs a pass on demand and returns its report.
// Offline it returns ErrOffline without touching the queue.
func (e *Engine) SyncNow(ctx context.Context) (Report, error) {
	if !e.conn.Online() {
		return Report{}, ErrOffline
	}
	return e.pass(ctx)
}

// pass joins the in-flight pass or starts a new one. A started pass ignores
// the caller's cancellation and always runs to the end of the queue.
func (e *Engine) pass(ctx context.Context) (Report, error) {
	v, err, shared := e.group.Do("sync", func() (any, error) {
		return e.replay(context.WithoutCancel(ctx))
	})
	if shared {
		slog.Debug("joined in-flight sync pass")
	}
	if err != nil {
		return Report{}, err
	}
	return v.(Report), nil
}

func (e *Engine) replay(ctx context.Context) (Report, error) {
	items, err := e.queue.GetAll(ctx)
	if err != nil {
		slog.Error("sync pass could not read queue", "error", err)
		return Report{}, err
	}

	r := Report{Pass: e.clock.Next(), Attempted: len(items)}
	if len(items) > 0 {
		slog.Info("sync pass starting", "pass", r.Pass, "pending", len(items))
	}

	for _, item := range items {
		if err := e.replayOne(ctx, item); err != nil {
			r.Failed++
			r.Errors = append(r.Errors, err)
			slog.Error("replay failed", "pass", r.Pass, "local_id", item.LocalID, "error", err)
			continue
		}
		r.Synced++
	}
	r.Complete = r.Synced == r.Attempted

	if len(items) > 0 {
		slog.Info("sync pass finished",
			"pass", r.Pass,
			"synced", r.Synced,
			"failed", r.Failed,
			"complete", r.Complete,
		)
	}

	e.mu.Lock()
	hooks := append([]func(context.Context, Report){}, e.hooks...)
	e.mu.Unlock()
	for _, fn := range hooks {
		fn(ctx, r)
	}
	return r, nil
}

func (e *Engine) replayOne(ctx context.Context, item domain.PendingTransaction) error {
	ref := item.Payload.ClientRef
	if item.Err != nil {
		return &ReplayError{LocalID: item.LocalID, ClientRef: ref, Stage: StageDecode, Err: item.Err}
	}

	tx, err := e.poster.Post(ctx, item.Payload)
	if err != nil {
		return &ReplayError{LocalID: item.LocalID, ClientRef: ref, Stage: StagePost, Err: err}
	}

	if err := e.queue.Remove(ctx, item.LocalID); err != nil {
		return &ReplayError{LocalID: item.LocalID, ClientRef: ref, Stage: StageRemove, Err: err}
	}

	slog.Info("transaction synced", "local_id", item.LocalID, "client_ref", ref, "transaction_id", tx.ID)
	return nil
}

// Trigger asks the background loop for a pass. Never blocks; triggers that
// arrive while a pass is running collapse into one.
func (e *Engine) Trigger() {
	e.wake.Notify()
}

// Run is the background sync loop. It runs a pass on every Trigger and on
// every tick of the retry interval while online, until ctx is done.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// Pass failures are logged and the loop continues; the entries stay queued
// for the next wake-up.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("sync loop starting", "interval", e.interval)

	var tick <-chan time.Time
	if e.interval > 0 {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("sync loop stopping: context cancelled")
			return ctx.Err()
		case <-e.wake.Wait():
			e.Sync(ctx)
		case <-tick:
			e.Sync(ctx)
		}
	}
}
