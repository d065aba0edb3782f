package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kasir/internal/domain"
	"github.com/roach88/kasir/internal/remote"
	"github.com/roach88/kasir/internal/remote/memory"
)

var testNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func testRequest(lines ...domain.LineItem) domain.TransactionRequest {
	sub := decimal.Zero
	for _, l := range lines {
		sub = sub.Add(l.Subtotal)
	}
	return domain.TransactionRequest{
		UserID:         "cashier-1",
		Subtotal:       sub,
		DiscountAmount: decimal.Zero,
		TaxAmount:      decimal.Zero,
		TotalAmount:    sub,
		PaymentMethod:  domain.PaymentCash,
		PaymentStatus:  domain.PaymentCompleted,
		CreatedAt:      testNow,
		Items:          lines,
	}
}

func line(id string, qty, snapshot int) domain.LineItem {
	price := decimal.NewFromInt(13000)
	return domain.LineItem{
		ProductID:     id,
		ProductName:   id,
		Quantity:      qty,
		UnitPrice:     price,
		Subtotal:      price.Mul(decimal.NewFromInt(int64(qty))),
		StockSnapshot: snapshot,
	}
}

func stockOf(t *testing.T, svc *memory.Service, productID string) int64 {
	t.Helper()
	for _, r := range svc.Rows(remote.Stock) {
		if r.String("product_id") == productID {
			q, err := r.Int64("quantity")
			require.NoError(t, err)
			return q
		}
	}
	t.Fatalf("no stock row for %s", productID)
	return 0
}

func TestPost_WritesHeaderItemsAndStock(t *testing.T) {
	svc := memory.New(memory.WithSequentialIDs())
	svc.Seed(remote.Stock, remote.Record{"product_id": "kopi", "quantity": 10, "low_stock_threshold": 10})
	p := NewPoster(svc, WithPosterClock(fixedNow))

	tx, err := p.Post(context.Background(), testRequest(line("kopi", 2, 10), line("teh", 1, 4)))

	require.NoError(t, err)
	assert.Equal(t, "transactions-1", tx.ID)
	assert.False(t, tx.IsOffline)

	headers := svc.Rows(remote.Transactions)
	require.Len(t, headers, 1)
	assert.Equal(t, "completed", headers[0].String("payment_status"))
	assert.NotContains(t, headers[0], "is_offline")

	items := svc.Rows(remote.TransactionItems)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, "transactions-1", it.String("transaction_id"))
	}

	assert.Equal(t, int64(8), stockOf(t, svc, "kopi"))
	assert.Equal(t, int64(3), stockOf(t, svc, "teh"), "missing row is seeded from the snapshot")

	adjustments := svc.Rows(remote.StockAdjustments)
	require.Len(t, adjustments, 2)
	assert.Equal(t, "sale", adjustments[0].String("adjustment_type"))
	assert.Equal(t, "Penjualan", adjustments[0].String("reason"))
	assert.Equal(t, "Transaction ID: transactions-1", adjustments[0].String("notes"))
	assert.Equal(t, "2", adjustments[0].String("quantity"))
}

func TestPost_NewStockRowHasDefaultThreshold(t *testing.T) {
	svc := memory.New()
	p := NewPoster(svc)

	_, err := p.Post(context.Background(), testRequest(line("teh", 1, 4)))

	require.NoError(t, err)
	rows := svc.Rows(remote.Stock)
	require.Len(t, rows, 1)
	assert.Equal(t, "10", rows[0].String("low_stock_threshold"))
}

func TestPost_StockClampedAtZero(t *testing.T) {
	svc := memory.New()
	svc.Seed(remote.Stock, remote.Record{"product_id": "kopi", "quantity": 1})
	p := NewPoster(svc)

	_, err := p.Post(context.Background(), testRequest(line("kopi", 3, 5), line("teh", 9, 2)))

	require.NoError(t, err)
	assert.Equal(t, int64(0), stockOf(t, svc, "kopi"))
	assert.Equal(t, int64(0), stockOf(t, svc, "teh"))
}

func TestPost_HeaderFailure(t *testing.T) {
	svc := memory.New()
	svc.SetReachable(false)

	_, err := NewPoster(svc).Post(context.Background(), testRequest(line("kopi", 1, 5)))

	var pe *PostError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, StageHeader, pe.Stage)
	assert.ErrorIs(t, err, remote.ErrUnreachable)
}

func TestPost_ItemFailureKeepsHeader(t *testing.T) {
	svc := memory.New(memory.WithSequentialIDs())
	svc.FailNext(memory.OpInsert, remote.TransactionItems, 1, nil)

	_, err := NewPoster(svc).Post(context.Background(), testRequest(line("kopi", 1, 5)))

	var pe *PostError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, StageItems, pe.Stage)
	assert.Equal(t, "transactions-1", pe.TransactionID)
	assert.Len(t, svc.Rows(remote.Transactions), 1, "remote writes are not rolled back")
	assert.Empty(t, svc.Rows(remote.Stock))
}

func TestPost_StockFailureIsSkipped(t *testing.T) {
	svc := memory.New()
	svc.Seed(remote.Stock, remote.Record{"product_id": "teh", "quantity": 5})
	svc.FailNext(memory.OpSelect, remote.Stock, 1, nil)

	tx, err := NewPoster(svc).Post(context.Background(), testRequest(line("kopi", 1, 5), line("teh", 2, 5)))

	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, int64(3), stockOf(t, svc, "teh"), "later products are still updated")
	adjustments := svc.Rows(remote.StockAdjustments)
	require.Len(t, adjustments, 1)
	assert.Equal(t, "teh", adjustments[0].String("product_id"))
}
