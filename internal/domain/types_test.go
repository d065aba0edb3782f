package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentMethod_Valid(t *testing.T) {
	assert.True(t, PaymentCash.Valid())
	assert.True(t, PaymentCard.Valid())
	assert.True(t, PaymentOther.Valid())
	assert.False(t, PaymentMethod("voucher").Valid())
	assert.False(t, PaymentMethod("").Valid())
}

func TestNewTransactionRequest_SnapshotsLines(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	c := Cart{
		Lines: []CartLine{
			{ProductID: "kopi", ProductName: "Kopi", Quantity: 2, UnitPrice: decimal.NewFromInt(13000), Stock: 10},
			{ProductID: "teh", ProductName: "Teh", Quantity: 1, UnitPrice: decimal.NewFromInt(8000), Stock: 4},
		},
		Subtotal:       decimal.NewFromInt(34000),
		DiscountAmount: decimal.NewFromInt(4000),
		TaxAmount:      decimal.NewFromInt(3000),
		TotalAmount:    decimal.NewFromInt(33000),
		CustomerName:   "Budi",
	}

	req := NewTransactionRequest(c, "cashier-1", PaymentCash, at)

	assert.Equal(t, "cashier-1", req.UserID)
	assert.Equal(t, PaymentCompleted, req.PaymentStatus)
	assert.Equal(t, "Budi", req.CustomerName)
	assert.Equal(t, at, req.CreatedAt)
	require.Len(t, req.Items, 2)
	assert.True(t, req.Items[0].Subtotal.Equal(decimal.NewFromInt(26000)))
	assert.Equal(t, 10, req.Items[0].StockSnapshot)
	assert.Equal(t, "Teh", req.Items[1].ProductName)
}

func TestTransactionRequest_JSONShape(t *testing.T) {
	req := TransactionRequest{
		ClientRef:     "offline_1_2",
		UserID:        "u1",
		PaymentMethod: PaymentCard,
		PaymentStatus: PaymentCompleted,
		IsOffline:     true,
		Items:         []LineItem{{ProductID: "p1", Quantity: 1}},
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "offline_1_2", raw["id"])
	assert.Equal(t, true, raw["is_offline"])
	assert.Contains(t, raw, "transaction_items")
}

func TestCommitted_CopiesItems(t *testing.T) {
	req := TransactionRequest{Items: []LineItem{{ProductID: "p1", Quantity: 1}}}
	tx := req.Committed("42")

	req.Items[0].Quantity = 9
	assert.Equal(t, "42", tx.ID)
	assert.Equal(t, 1, tx.Items[0].Quantity)
}
