// Package api exposes the register to the UI layer over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/roach88/kasir/internal/cart"
	"github.com/roach88/kasir/internal/checkout"
	"github.com/roach88/kasir/internal/domain"
	"github.com/roach88/kasir/internal/engine"
	"github.com/roach88/kasir/internal/notify"
)

// CashierHeader names the cashier making the request. When absent the
// configured default cashier is used.
const CashierHeader = "X-Cashier-ID"

// Syncer runs a manual sync pass.
type Syncer interface {
	SyncNow(ctx context.Context) (engine.Report, error)
}

// Status reports connectivity and queue size.
type Status interface {
	Online() bool
	Pending() int
}

// PendingLister lists queued sales.
type PendingLister interface {
	GetAll(ctx context.Context) ([]domain.PendingTransaction, error)
}

// Deps bundles everything the handlers use.
type Deps struct {
	Cart      *cart.Engine
	Committer *checkout.Committer
	Sync      Syncer
	Status    Status
	Queue     PendingLister
	Feed      *notify.Feed
	Notifier  notify.Notifier
	Localizer *notify.Localizer
	CashierID string
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	Deps
	validate *validator.Validate
}

// New constructs a Handler. A nil Notifier means the Feed.
func New(d Deps) *Handler {
	if d.Notifier == nil {
		d.Notifier = d.Feed
	}
	if d.Localizer == nil {
		d.Localizer = notify.NewLocalizer("id")
	}
	return &Handler{Deps: d, validate: validator.New()}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Delete("/", h.clearCart)
		r.Post("/items", h.addItem)
		r.Put("/items/{productID}", h.updateItem)
		r.Delete("/items/{productID}", h.removeItem)
		r.Post("/discount", h.applyDiscount)
		r.Put("/customer", h.setCustomer)
	})

	r.Post("/checkout", h.checkout)
	r.Get("/status", h.status)
	r.Post("/sync", h.sync)
	r.Get("/pending", h.pending)
	r.Get("/notifications", h.notifications)

	return r
}

// logRequests logs every request through slog.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) cashier(r *http.Request) string {
	if id := r.Header.Get(CashierHeader); id != "" {
		return id
	}
	return h.CashierID
}
