package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roach88/kasir/internal/cart"
	"github.com/roach88/kasir/internal/checkout"
	"github.com/roach88/kasir/internal/engine"
	"github.com/roach88/kasir/internal/notify"
)

type errorBody struct {
	Error string        `json:"error"`
	Toast *notify.Toast `json:"toast,omitempty"`
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}

// respondDomainError maps err to a status and a localized toast. The toast
// is also sent to the notifier so the UI feed shows it, unless the committer
// already reported the failure there.
func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	status, toast := h.classify(err)
	if !errors.Is(err, checkout.ErrOfflineSaveFailed) {
		h.Notifier.Notify(toast)
	}
	respondJSON(w, status, errorBody{Error: err.Error(), Toast: &toast})
}

func (h *Handler) classify(err error) (int, notify.Toast) {
	loc := h.Localizer
	var se *cart.StockError
	switch {
	case errors.As(err, &se) && errors.Is(err, cart.ErrOutOfStock):
		return http.StatusConflict, loc.OutOfStock(se.ProductName)
	case errors.As(err, &se):
		return http.StatusConflict, loc.InsufficientStock(se.ProductName, se.Available)
	case errors.Is(err, cart.ErrInvalidDiscount):
		return http.StatusUnprocessableEntity, loc.InvalidDiscount()
	case errors.Is(err, cart.ErrEmptyCart):
		return http.StatusUnprocessableEntity, loc.EmptyCart()
	case errors.Is(err, cart.ErrCheckoutInProgress):
		return http.StatusConflict, loc.CheckoutBusy()
	case errors.Is(err, cart.ErrLineNotFound):
		return http.StatusNotFound, loc.Failed(err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusUnprocessableEntity, loc.Failed(err.Error())
	case errors.Is(err, checkout.ErrNoActor):
		return http.StatusUnauthorized, loc.NoActor()
	case errors.Is(err, checkout.ErrInvalidPaymentMethod):
		return http.StatusUnprocessableEntity, loc.InvalidPayment()
	case errors.Is(err, checkout.ErrInvalidRequest):
		return http.StatusUnprocessableEntity, loc.Failed(err.Error())
	case errors.Is(err, checkout.ErrOfflineSaveFailed):
		return http.StatusInternalServerError, loc.OfflineSaveFailed()
	case checkout.IsPostError(err):
		return http.StatusBadGateway, loc.Failed(err.Error())
	case errors.Is(err, engine.ErrOffline):
		return http.StatusServiceUnavailable, loc.WentOffline()
	default:
		return http.StatusInternalServerError, loc.Failed(err.Error())
	}
}
