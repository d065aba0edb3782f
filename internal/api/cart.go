package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/roach88/kasir/internal/domain"
)

type cartResponse struct {
	domain.Cart
	TaxRate decimal.Decimal `json:"tax_rate"`
}

type addItemRequest struct {
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity" validate:"gte=1"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type discountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type customerRequest struct {
	CustomerName string `json:"customer_name" validate:"max=200"`
	Notes        string `json:"notes" validate:"max=1000"`
}

func (h *Handler) respondCart(w http.ResponseWriter, status int) {
	respondJSON(w, status, cartResponse{Cart: h.Cart.Snapshot(), TaxRate: h.Cart.TaxRate()})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	h.respondCart(w, http.StatusOK)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.Cart.Clear(); err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondCart(w, http.StatusOK)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if req.Product.Price.IsNegative() {
		respondError(w, http.StatusUnprocessableEntity, "price must not be negative")
		return
	}

	if err := h.Cart.AddItem(req.Product, req.Quantity); err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondCart(w, http.StatusOK)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Cart.UpdateItem(chi.URLParam(r, "productID"), req.Quantity); err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondCart(w, http.StatusOK)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Cart.RemoveItem(chi.URLParam(r, "productID")); err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondCart(w, http.StatusOK)
}

func (h *Handler) applyDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Cart.ApplyDiscount(req.Amount); err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondCart(w, http.StatusOK)
}

func (h *Handler) setCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.Cart.SetCustomerDetails(req.CustomerName, req.Notes); err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondCart(w, http.StatusOK)
}
