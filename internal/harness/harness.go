package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/roach88/kasir/internal/cart"
	"github.com/roach88/kasir/internal/checkout"
	"github.com/roach88/kasir/internal/connectivity"
	"github.com/roach88/kasir/internal/domain"
	"github.com/roach88/kasir/internal/engine"
	"github.com/roach88/kasir/internal/notify"
	"github.com/roach88/kasir/internal/remote"
	"github.com/roach88/kasir/internal/remote/memory"
	"github.com/roach88/kasir/internal/settings"
	"github.com/roach88/kasir/internal/store"
	"github.com/roach88/kasir/internal/testutil"
)

// Harness is one wired register under test.
type Harness struct {
	remote    *memory.Service
	store     *store.Store
	signal    *connectivity.Signal
	monitor   *connectivity.Monitor
	engine    *engine.Engine
	cart      *cart.Engine
	committer *checkout.Committer
	feed      *notify.Feed
	seq       int64
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh queue file in a temporary directory and
// a fresh in-memory remote.
//
// Execution flow:
// 1. Seed the remote with the tax setting and stock rows
// 2. Wire cart, checkout, queue, monitor and engine
// 3. Execute steps, checking each expect clause
// 4. Capture the final state and evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "kasir-harness-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	ctx := context.Background()
	h, err := newHarness(ctx, scenario, filepath.Join(dir, "queue.db"))
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.execute(ctx, i, step, result)
	}
	h.monitor.Wait()

	result.Calls = h.remote.Calls()
	state, err := h.capture(ctx)
	if err != nil {
		return nil, err
	}
	result.State = state

	for i, a := range scenario.Assertions {
		if err := evaluateAssertion(a, result); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d] %s: %v", i, a.Type, err))
		}
	}
	return result, nil
}

func newHarness(ctx context.Context, s *Scenario, queuePath string) (*Harness, error) {
	clock := testutil.NewClock(testutil.Epoch, 0)
	randVals := s.Rand
	if len(randVals) == 0 {
		randVals = []int{42}
	}

	svc := memory.New(memory.WithSequentialIDs())
	if s.TaxPercentage != "" {
		svc.Seed(remote.Settings, remote.Record{"key": settings.TaxPercentageKey, "value": s.TaxPercentage})
	}
	for _, row := range s.Stock {
		svc.Seed(remote.Stock, remote.Record{
			"product_id":          row.ProductID,
			"quantity":            int64(row.Quantity),
			"low_stock_threshold": int64(domain.DefaultLowStockThreshold),
		})
	}

	st, err := store.Open(queuePath, store.WithClock(clock.Now))
	if err != nil {
		return nil, fmt.Errorf("failed to open queue: %w", err)
	}

	locale := s.Locale
	if locale == "" {
		locale = "id"
	}
	loc := notify.NewLocalizer(locale)
	feed := notify.NewFeed(100)

	// Tax is read while online, before the scenario decides reachability.
	taxRate := settings.LoadTaxRate(ctx, svc)
	svc.ResetCalls()

	svc.SetReachable(!s.Offline)
	sig := connectivity.NewSignal(!s.Offline)
	poster := checkout.NewPoster(svc, checkout.WithPosterClock(clock.Now))
	eng := engine.New(st, poster, sig, engine.WithInterval(0), engine.WithNotifier(feed, loc))
	mon := connectivity.NewMonitor(sig, st, eng)
	mon.Init(ctx)
	eng.OnPass(func(ctx context.Context, _ engine.Report) { mon.RefreshPending(ctx) })

	c := cart.New(taxRate)
	committer := checkout.NewCommitter(c, poster, st, mon,
		checkout.WithNotifier(feed, loc),
		checkout.WithClock(clock.Now),
		checkout.WithRand(testutil.NewSequenceRand(randVals...).IntN),
	)

	return &Harness{
		remote:    svc,
		store:     st,
		signal:    sig,
		monitor:   mon,
		engine:    eng,
		cart:      c,
		committer: committer,
		feed:      feed,
	}, nil
}

// execute runs one step, records it and checks its expect clause.
func (h *Harness) execute(ctx context.Context, i int, step Step, result *Result) {
	h.seq++
	before := len(h.remote.Calls())

	detail, err := h.perform(ctx, step)

	ev := TraceEvent{Seq: h.seq, Step: step.Name(), Outcome: "ok", Detail: detail}
	if err != nil {
		ev.Outcome = errorCode(err)
	}
	if calls := h.remote.Calls(); len(calls) > before {
		ev.Calls = calls[before:]
	}
	result.AddTrace(ev)

	if msg := checkExpect(step.Expect, err, detail); msg != "" {
		result.AddError(fmt.Sprintf("steps[%d] %s: %s", i, ev.Step, msg))
	}
}

func (h *Harness) perform(ctx context.Context, step Step) (map[string]any, error) {
	switch step.Name() {
	case StepAdd:
		a := step.Add
		p := domain.Product{
			ID:            a.ProductID,
			Name:          a.Name,
			Price:         decimal.RequireFromString(a.Price),
			StockQuantity: a.Stock,
		}
		if err := h.cart.AddItem(p, a.Quantity); err != nil {
			return nil, err
		}
		return h.cartDetail(), nil

	case StepUpdate:
		if err := h.cart.UpdateItem(step.Update.ProductID, step.Update.Quantity); err != nil {
			return nil, err
		}
		return h.cartDetail(), nil

	case StepRemove:
		if err := h.cart.RemoveItem(step.Remove); err != nil {
			return nil, err
		}
		return h.cartDetail(), nil

	case StepDiscount:
		if err := h.cart.ApplyDiscount(decimal.RequireFromString(step.Discount)); err != nil {
			return nil, err
		}
		return h.cartDetail(), nil

	case StepCustomer:
		if err := h.cart.SetCustomerDetails(step.Customer.Name, step.Customer.Notes); err != nil {
			return nil, err
		}
		return h.cartDetail(), nil

	case StepCheckout:
		return h.checkout(ctx, step.Checkout)

	case StepNetwork:
		online := step.Network == "online"
		h.remote.SetReachable(online)
		h.signal.Set(online)
		h.monitor.Transition(ctx, online)
		h.monitor.Wait()
		return map[string]any{"online": online, "pending": h.monitor.Pending()}, nil

	case StepSync:
		r, err := h.engine.SyncNow(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"attempted": r.Attempted, "synced": r.Synced, "failed": r.Failed}, nil

	case StepFail:
		f := step.Fail
		h.remote.FailNext(memory.Op(f.Op), remote.Kind(f.Kind), f.Times, nil)
		return nil, nil
	}
	return nil, fmt.Errorf("unknown step")
}

func (h *Harness) checkout(ctx context.Context, s *CheckoutStep) (map[string]any, error) {
	commit := h.committer.CommitWithFallback
	if s.OnlineOnly {
		commit = h.committer.Commit
	}
	tx, err := commit(ctx, s.Actor, domain.PaymentMethod(s.Payment))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":      tx.ID,
		"offline": tx.IsOffline,
		"total":   tx.TotalAmount.String(),
	}, nil
}

func (h *Harness) cartDetail() map[string]any {
	snap := h.cart.Snapshot()
	return map[string]any{"lines": len(snap.Lines), "total": snap.TotalAmount.String()}
}

// capture reads the final register state.
func (h *Harness) capture(ctx context.Context) (State, error) {
	pending, err := h.store.Count(ctx)
	if err != nil {
		return State{}, fmt.Errorf("failed to count queue: %w", err)
	}

	state := State{
		Pending: pending,
		Remote:  make(map[string]int),
		Stock:   make(map[string]int64),
		Toasts:  toastTitles(h.feed.Recent()),
	}
	for _, kind := range remote.Kinds {
		if n := len(h.remote.Rows(kind)); n > 0 {
			state.Remote[string(kind)] = n
		}
	}
	for _, row := range h.remote.Rows(remote.Stock) {
		qty, err := row.Int64("quantity")
		if err != nil {
			return State{}, fmt.Errorf("stock %s: %w", row.String("product_id"), err)
		}
		state.Stock[row.String("product_id")] = qty
	}

	snap := h.cart.Snapshot()
	state.CartLines = len(snap.Lines)
	state.CartTotal = snap.TotalAmount.String()
	return state, nil
}

// errorCode names err for traces and expect clauses.
func errorCode(err error) string {
	var se *cart.StockError
	switch {
	case errors.Is(err, cart.ErrOutOfStock):
		return "out_of_stock"
	case errors.As(err, &se):
		return "insufficient_stock"
	case errors.Is(err, cart.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, cart.ErrInvalidDiscount):
		return "invalid_discount"
	case errors.Is(err, cart.ErrLineNotFound):
		return "line_not_found"
	case errors.Is(err, cart.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, cart.ErrCheckoutInProgress):
		return "checkout_in_progress"
	case errors.Is(err, checkout.ErrNoActor):
		return "no_actor"
	case errors.Is(err, checkout.ErrInvalidPaymentMethod):
		return "invalid_payment_method"
	case errors.Is(err, checkout.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, checkout.ErrOfflineSaveFailed):
		return "offline_save_failed"
	case checkout.IsPostError(err):
		return "post_failed"
	case errors.Is(err, engine.ErrOffline):
		return "offline"
	default:
		return "error"
	}
}

func toastTitles(toasts []notify.Toast) []string {
	out := make([]string, len(toasts))
	for i, t := range toasts {
		out[i] = t.Title
	}
	return out
}
