package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/kasir/internal/domain"
)

type checkoutRequest struct {
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	// OnlineOnly disables the offline fallback.
	OnlineOnly bool `json:"online_only,omitempty"`
}

type statusResponse struct {
	Online  bool `json:"online"`
	Pending int  `json:"pending"`
}

type pendingResponse struct {
	LocalID     int64           `json:"local_id"`
	ClientRef   string          `json:"client_ref"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       int             `json:"items"`
	QueuedAt    time.Time       `json:"queued_at"`
	Error       string          `json:"error,omitempty"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	commit := h.Committer.CommitWithFallback
	if req.OnlineOnly {
		commit = h.Committer.Commit
	}
	tx, err := commit(r.Context(), h.cashier(r), req.PaymentMethod)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, tx)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, statusResponse{Online: h.Status.Online(), Pending: h.Status.Pending()})
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	report, err := h.Sync.SyncNow(r.Context())
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	items, err := h.Queue.GetAll(r.Context())
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	out := make([]pendingResponse, 0, len(items))
	for _, p := range items {
		pr := pendingResponse{
			LocalID:     p.LocalID,
			ClientRef:   p.Payload.ClientRef,
			TotalAmount: p.Payload.TotalAmount,
			Items:       len(p.Payload.Items),
			QueuedAt:    p.Timestamp,
		}
		if p.Err != nil {
			pr.Error = p.Err.Error()
		}
		out = append(out, pr)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	if h.Feed == nil {
		respondJSON(w, http.StatusOK, []any{})
		return
	}
	respondJSON(w, http.StatusOK, h.Feed.Recent())
}
