// Package checkout turns the cart into a committed sale.
//
// Online, the sale is written to the remote service by Poster. When the
// register is offline, or the remote write fails, the same request is saved
// to the local queue with a placeholder id and handed back in the same
// shape, so the cashier always gets a receipt.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/roach88/kasir/internal/cart"
	"github.com/roach88/kasir/internal/domain"
	"github.com/roach88/kasir/internal/notify"
)

// Queue is where offline sales are saved.
type Queue interface {
	Save(ctx context.Context, req domain.TransactionRequest) (int64, error)
}

// Connectivity reports whether the register is online and is told when the
// queue changed.
type Connectivity interface {
	Online() bool
	RefreshPending(ctx context.Context)
}

// SyncTrigger requests a background sync pass.
type SyncTrigger interface {
	Trigger()
}

// Committer orchestrates checkout for one register.
type Committer struct {
	cart     *cart.Engine
	poster   *Poster
	queue    Queue
	conn     Connectivity
	trigger  SyncTrigger
	notifier notify.Notifier
	loc      *notify.Localizer
	validate *validator.Validate
	now      func() time.Time
	randN    func(n int) int
}

// Option configures a Committer.
type Option func(*Committer)

// WithSyncTrigger sets who is asked for a background sync after an
// offline save.
func WithSyncTrigger(t SyncTrigger) Option {
	return func(c *Committer) {
		c.trigger = t
	}
}

// WithNotifier sets where toasts go and the language they are built in.
func WithNotifier(n notify.Notifier, loc *notify.Localizer) Option {
	return func(c *Committer) {
		c.notifier = n
		c.loc = loc
	}
}

// WithClock sets the clock used for created_at and placeholder ids.
func WithClock(now func() time.Time) Option {
	return func(c *Committer) {
		c.now = now
	}
}

// WithRand sets the source of the random placeholder id suffix.
func WithRand(randN func(n int) int) Option {
	return func(c *Committer) {
		c.randN = randN
	}
}

// NewCommitter wires a Committer.
func NewCommitter(c *cart.Engine, p *Poster, q Queue, conn Connectivity, opts ...Option) *Committer {
	cm := &Committer{
		cart:     c,
		poster:   p,
		queue:    q,
		conn:     conn,
		notifier: notify.Discard,
		loc:      notify.NewLocalizer("id"),
		validate: validator.New(),
		now:      time.Now,
		randN:    rand.Intn,
	}
	for _, opt := range opts {
		opt(cm)
	}
	return cm
}

func precheck(actor string, method domain.PaymentMethod) error {
	if actor == "" {
		return ErrNoActor
	}
	if !method.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, method)
	}
	return nil
}

func (c *Committer) build(snap domain.Cart, actor string, method domain.PaymentMethod) (domain.TransactionRequest, error) {
	req := domain.NewTransactionRequest(snap, actor, method, c.now())
	if err := c.validate.Struct(req); err != nil {
		return domain.TransactionRequest{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return req, nil
}

// Commit posts the cart to the remote service. Any failure is returned and
// the cart is kept.
func (c *Committer) Commit(ctx context.Context, actor string, method domain.PaymentMethod) (*domain.CommittedTransaction, error) {
	if err := precheck(actor, method); err != nil {
		return nil, err
	}

	var tx *domain.CommittedTransaction
	err := c.cart.Checkout(func(snap domain.Cart) error {
		req, err := c.build(snap, actor, method)
		if err != nil {
			return err
		}
		tx, err = c.poster.Post(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.notifier.Notify(c.loc.Committed(tx.ID))
	return tx, nil
}

// CommitWithFallback posts the cart when online and queues it locally when
// offline or when the remote write fails. Validation failures are returned
// without falling back. ErrOfflineSaveFailed means the sale reached neither
// the remote service nor the queue; the cart is kept.
func (c *Committer) CommitWithFallback(ctx context.Context, actor string, method domain.PaymentMethod) (*domain.CommittedTransaction, error) {
	if err := precheck(actor, method); err != nil {
		return nil, err
	}

	var tx *domain.CommittedTransaction
	err := c.cart.Checkout(func(snap domain.Cart) error {
		req, err := c.build(snap, actor, method)
		if err != nil {
			return err
		}

		if c.conn.Online() {
			posted, err := c.poster.Post(ctx, req)
			if err == nil {
				tx = posted
				c.notifier.Notify(c.loc.Committed(tx.ID))
				return nil
			}
			slog.Warn("online commit failed, saving offline", "error", err)
		}

		tx, err = c.saveOffline(ctx, req)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrOfflineSaveFailed) {
			c.notifier.Notify(c.loc.OfflineSaveFailed())
		}
		return nil, err
	}
	return tx, nil
}

func (c *Committer) saveOffline(ctx context.Context, req domain.TransactionRequest) (*domain.CommittedTransaction, error) {
	req.IsOffline = true
	req.ClientRef = fmt.Sprintf("offline_%d_%d", req.CreatedAt.UnixMilli(), c.randN(1000))
	for i, item := range req.Items {
		req.Items[i].Subtotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	}

	localID, err := c.queue.Save(ctx, req)
	if err != nil {
		slog.Error("offline save failed", "client_ref", req.ClientRef, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrOfflineSaveFailed, err)
	}
	slog.Info("transaction saved offline", "local_id", localID, "client_ref", req.ClientRef)

	c.conn.RefreshPending(ctx)
	if c.trigger != nil {
		c.trigger.Trigger()
	}
	c.notifier.Notify(c.loc.OfflineSaved())

	return req.Committed(req.ClientRef), nil
}
