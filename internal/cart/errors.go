package cart

import (
	"errors"
	"fmt"
)

// Validation rejections. The cart is never mutated when one is returned.
var (
	ErrOutOfStock         = errors.New("product is out of stock")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrInvalidDiscount    = errors.New("discount must be between 0 and the subtotal")
	ErrLineNotFound       = errors.New("product is not in the cart")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
)

// StockError names the product and the stock that was available when a
// quantity change was rejected.
type StockError struct {
	ProductID   string
	ProductName string
	Available   int
	Err         error // ErrOutOfStock or ErrInsufficientStock
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%s: %v (available %d)", e.ProductName, e.Err, e.Available)
}

func (e *StockError) Unwrap() error {
	return e.Err
}
