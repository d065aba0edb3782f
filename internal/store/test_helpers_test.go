package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/kasir/internal/domain"
)

var testNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// createTestStore creates a new store in a temp dir with a fixed clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	return s
}

// createTestRequest creates an offline sale with one line.
func createTestRequest(ref string, qty int) domain.TransactionRequest {
	price := decimal.NewFromInt(13000)
	sub := price.Mul(decimal.NewFromInt(int64(qty)))
	return domain.TransactionRequest{
		ClientRef:      ref,
		UserID:         "cashier-1",
		Subtotal:       sub,
		DiscountAmount: decimal.Zero,
		TaxAmount:      decimal.Zero,
		TotalAmount:    sub,
		PaymentMethod:  domain.PaymentCash,
		PaymentStatus:  domain.PaymentCompleted,
		IsOffline:      true,
		CreatedAt:      testNow,
		Items: []domain.LineItem{{
			ProductID:     "kopi",
			ProductName:   "Kopi",
			Quantity:      qty,
			UnitPrice:     price,
			Subtotal:      sub,
			StockSnapshot: 10,
		}},
	}
}
