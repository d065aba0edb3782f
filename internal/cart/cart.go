// Package cart implements the in-memory shopping cart of the register.
//
// The cart keeps lines in insertion order with one line per product, checks
// every quantity change against the product's last-known stock, and
// recomputes subtotal, tax and total after every mutation so the displayed
// total can never drift from the total that gets persisted.
//
// Checkout is serialized per cart: while a Checkout callback runs, every
// mutator and any second Checkout fails with ErrCheckoutInProgress.
package cart

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/kasir/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Engine is the cart state for one register.
// Safe for concurrent use.
type Engine struct {
	mu          sync.Mutex
	lines       []domain.CartLine
	discount    decimal.Decimal
	customer    string
	notes       string
	taxRate     decimal.Decimal // fraction, e.g. 0.1 for 10%
	checkingOut bool

	// derived, always recomputed together
	subtotal decimal.Decimal
	tax      decimal.Decimal
	total    decimal.Decimal
}

// New creates an empty cart. taxPercentage is the session tax rate as a
// percentage (10 means 10%) and stays fixed for the life of the cart.
func New(taxPercentage decimal.Decimal) *Engine {
	if taxPercentage.IsNegative() {
		taxPercentage = decimal.Zero
	}
	return &Engine{taxRate: taxPercentage.Div(hundred)}
}

// TaxRate returns the tax rate as a fraction.
func (e *Engine) TaxRate() decimal.Decimal {
	return e.taxRate
}

// Totals computes subtotal, tax and total for the given lines.
// The discount is clamped to [0, subtotal] before tax is applied; the
// clamped value is returned as well.
func Totals(lines []domain.CartLine, discount, taxRate decimal.Decimal) (subtotal, appliedDiscount, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal())
	}

	appliedDiscount = discount
	if appliedDiscount.IsNegative() {
		appliedDiscount = decimal.Zero
	}
	if appliedDiscount.GreaterThan(subtotal) {
		appliedDiscount = subtotal
	}

	taxable := subtotal.Sub(appliedDiscount)
	tax = taxable.Mul(taxRate)
	total = taxable.Add(tax)
	return subtotal, appliedDiscount, tax, total
}

// recompute must be called with mu held after every state change.
func (e *Engine) recompute() {
	e.subtotal, e.discount, e.tax, e.total = Totals(e.lines, e.discount, e.taxRate)
}

func (e *Engine) find(productID string) int {
	for i, l := range e.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem adds qty units of p, merging into an existing line.
// The unit price is snapshotted from p.Price when the line is created.
func (e *Engine) AddItem(p domain.Product, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.checkingOut {
		return ErrCheckoutInProgress
	}
	if p.StockQuantity <= 0 {
		return &StockError{ProductID: p.ID, ProductName: p.Name, Available: 0, Err: ErrOutOfStock}
	}

	i := e.find(p.ID)
	newQty := qty
	if i >= 0 {
		newQty += e.lines[i].Quantity
	}
	if newQty > p.StockQuantity {
		return &StockError{ProductID: p.ID, ProductName: p.Name, Available: p.StockQuantity, Err: ErrInsufficientStock}
	}

	if i >= 0 {
		e.lines[i].Quantity = newQty
		e.lines[i].Stock = p.StockQuantity
	} else {
		e.lines = append(e.lines, domain.CartLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    qty,
			UnitPrice:   p.Price,
			Stock:       p.StockQuantity,
		})
	}

	e.recompute()
	return nil
}

// UpdateItem sets the quantity of a line. qty <= 0 removes the line.
func (e *Engine) UpdateItem(productID string, qty int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.checkingOut {
		return ErrCheckoutInProgress
	}

	i := e.find(productID)
	if i < 0 {
		return ErrLineNotFound
	}

	if qty <= 0 {
		e.lines = append(e.lines[:i], e.lines[i+1:]...)
		e.recompute()
		return nil
	}

	line := e.lines[i]
	if qty > line.Stock {
		return &StockError{ProductID: line.ProductID, ProductName: line.ProductName, Available: line.Stock, Err: ErrInsufficientStock}
	}

	e.lines[i].Quantity = qty
	e.recompute()
	return nil
}

// RemoveItem drops a line. Removing an absent product is a no-op.
func (e *Engine) RemoveItem(productID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.checkingOut {
		return ErrCheckoutInProgress
	}

	if i := e.find(productID); i >= 0 {
		e.lines = append(e.lines[:i], e.lines[i+1:]...)
		e.recompute()
	}
	return nil
}

// Clear resets the cart to its zero value.
func (e *Engine) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.checkingOut {
		return ErrCheckoutInProgress
	}
	e.reset()
	return nil
}

func (e *Engine) reset() {
	e.lines = nil
	e.discount = decimal.Zero
	e.customer = ""
	e.notes = ""
	e.recompute()
}

// ApplyDiscount sets the discount amount.
// Rejected without mutation when amount < 0 or amount > subtotal.
func (e *Engine) ApplyDiscount(amount decimal.Decimal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.checkingOut {
		return ErrCheckoutInProgress
	}
	if amount.IsNegative() || amount.GreaterThan(e.subtotal) {
		return ErrInvalidDiscount
	}

	e.discount = amount
	e.recompute()
	return nil
}

// SetCustomerDetails stores the optional customer name and notes, trimmed
// and NFC-normalized so the same name typed on two keyboards compares equal.
func (e *Engine) SetCustomerDetails(name, notes string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.checkingOut {
		return ErrCheckoutInProgress
	}
	e.customer = norm.NFC.String(strings.TrimSpace(name))
	e.notes = norm.NFC.String(strings.TrimSpace(notes))
	return nil
}

// Snapshot returns a copy of the current cart with its totals.
func (e *Engine) Snapshot() domain.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

func (e *Engine) snapshot() domain.Cart {
	var lines []domain.CartLine
	if len(e.lines) > 0 {
		lines = make([]domain.CartLine, len(e.lines))
		copy(lines, e.lines)
	}
	return domain.Cart{
		Lines:          lines,
		Subtotal:       e.subtotal,
		DiscountAmount: e.discount,
		TaxAmount:      e.tax,
		TotalAmount:    e.total,
		CustomerName:   e.customer,
		Notes:          e.notes,
	}
}

// Checkout runs fn with a snapshot of the cart while holding the cart for
// checkout. The cart is cleared when fn returns nil and left untouched
// otherwise. An empty cart is rejected with ErrEmptyCart before fn runs.
//
// fn runs without the cart mutex held, so it may block on remote calls.
func (e *Engine) Checkout(fn func(domain.Cart) error) error {
	e.mu.Lock()
	if e.checkingOut {
		e.mu.Unlock()
		return ErrCheckoutInProgress
	}
	if len(e.lines) == 0 {
		e.mu.Unlock()
		return ErrEmptyCart
	}
	e.checkingOut = true
	snap := e.snapshot()
	e.mu.Unlock()

	err := fn(snap)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.checkingOut = false
	if err != nil {
		return err
	}
	e.reset()
	return nil
}
