package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrNoActor is returned when no cashier is attached to the checkout.
	ErrNoActor = errors.New("no cashier for checkout")

	// ErrInvalidPaymentMethod is returned for a payment method other than
	// cash, card or other.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrInvalidRequest is returned when the built request fails validation.
	ErrInvalidRequest = errors.New("invalid transaction request")

	// ErrOfflineSaveFailed is returned when a sale could neither be posted
	// nor queued locally. The cart is kept.
	ErrOfflineSaveFailed = errors.New("offline save failed")
)

// Stage names the remote write that failed while posting a transaction.
type Stage string

const (
	StageHeader Stage = "header"
	StageItems  Stage = "items"
)

// PostError is returned when the header or line items could not be written.
// Stock updates never produce a PostError.
type PostError struct {
	Stage Stage
	// TransactionID is set when the header was written before the failure.
	TransactionID string
	Err           error
}

func (e *PostError) Error() string {
	if e.TransactionID != "" {
		return fmt.Sprintf("post transaction %s: %s: %v", e.TransactionID, e.Stage, e.Err)
	}
	return fmt.Sprintf("post transaction: %s: %v", e.Stage, e.Err)
}

func (e *PostError) Unwrap() error {
	return e.Err
}

// IsPostError reports whether err is or wraps a *PostError.
func IsPostError(err error) bool {
	var pe *PostError
	return errors.As(err, &pe)
}
