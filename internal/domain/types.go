package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer paid.
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentCard  PaymentMethod = "card"
	PaymentOther PaymentMethod = "other"
)

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentOther:
		return true
	}
	return false
}

// PaymentStatus is the settlement state of a transaction header.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Product is the catalog view the cart needs at add time.
type Product struct {
	ID            string          `json:"id" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

// CartLine is one product in the cart.
// Stock is the product's last-known stock level and is only used to
// validate quantity changes.
type CartLine struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Stock       int             `json:"stock"`
}

// Subtotal returns unit price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is a snapshot of the cart state with its derived totals.
type Cart struct {
	Lines          []CartLine      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	CustomerName   string          `json:"customer_name,omitempty"`
	Notes          string          `json:"notes,omitempty"`
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// LineItem is the point-in-time record of one sold product.
// StockSnapshot carries the stock level the cashier saw so a replay can
// seed a missing remote stock row the same way a live sale would.
type LineItem struct {
	ProductID     string          `json:"product_id" validate:"required"`
	ProductName   string          `json:"product_name"`
	Quantity      int             `json:"quantity" validate:"gte=1"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	StockSnapshot int             `json:"stock_snapshot,omitempty"`
}

// TransactionRequest is the payload of a sale, identical whether it is
// posted right away or queued for a later sync pass.
//
// ClientRef and IsOffline only exist on queued sales. ClientRef is the
// placeholder id shown on an offline receipt; it is never sent to the
// remote service.
type TransactionRequest struct {
	ClientRef      string          `json:"id,omitempty"`
	UserID         string          `json:"user_id" validate:"required"`
	CustomerName   string          `json:"customer_name,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentMethod  PaymentMethod   `json:"payment_method" validate:"required,oneof=cash card other"`
	PaymentStatus  PaymentStatus   `json:"payment_status" validate:"required,oneof=pending completed cancelled"`
	Notes          string          `json:"notes,omitempty"`
	IsOffline      bool            `json:"is_offline,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	Items          []LineItem      `json:"transaction_items" validate:"required,min=1,dive"`
}

// NewTransactionRequest builds the payload for a cart.
func NewTransactionRequest(c Cart, userID string, method PaymentMethod, at time.Time) TransactionRequest {
	items := make([]LineItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, LineItem{
			ProductID:     l.ProductID,
			ProductName:   l.ProductName,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			Subtotal:      l.Subtotal(),
			StockSnapshot: l.Stock,
		})
	}
	return TransactionRequest{
		UserID:         userID,
		CustomerName:   c.CustomerName,
		Subtotal:       c.Subtotal,
		DiscountAmount: c.DiscountAmount,
		TaxAmount:      c.TaxAmount,
		TotalAmount:    c.TotalAmount,
		PaymentMethod:  method,
		PaymentStatus:  PaymentCompleted,
		Notes:          c.Notes,
		CreatedAt:      at,
		Items:          items,
	}
}

// CommittedTransaction is what the caller receives after checkout.
// Offline sales come back in the same shape with IsOffline set and the
// placeholder id as ID, so receipt rendering never branches on origin.
type CommittedTransaction struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	CustomerName   string          `json:"customer_name,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	Notes          string          `json:"notes,omitempty"`
	IsOffline      bool            `json:"is_offline"`
	CreatedAt      time.Time       `json:"created_at"`
	Items          []LineItem      `json:"transaction_items"`
}

// Committed turns a request into the receipt-shaped transaction.
func (r TransactionRequest) Committed(id string) *CommittedTransaction {
	items := make([]LineItem, len(r.Items))
	copy(items, r.Items)
	return &CommittedTransaction{
		ID:             id,
		UserID:         r.UserID,
		CustomerName:   r.CustomerName,
		Subtotal:       r.Subtotal,
		DiscountAmount: r.DiscountAmount,
		TaxAmount:      r.TaxAmount,
		TotalAmount:    r.TotalAmount,
		PaymentMethod:  r.PaymentMethod,
		PaymentStatus:  r.PaymentStatus,
		Notes:          r.Notes,
		IsOffline:      r.IsOffline,
		CreatedAt:      r.CreatedAt,
		Items:          items,
	}
}

// PendingTransaction is a sale waiting in the local queue.
// Err is set when the stored payload could not be decoded; such an entry
// stays queued until an operator removes it.
type PendingTransaction struct {
	LocalID   int64              `json:"local_id"`
	Payload   TransactionRequest `json:"payload"`
	Timestamp time.Time          `json:"timestamp"`
	Err       error              `json:"-"`
}

// DefaultLowStockThreshold is used when a sale creates a stock row.
const DefaultLowStockThreshold = 10

// AdjustmentSale marks a stock adjustment caused by a sale.
const AdjustmentSale = "sale"
