package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/kasir/internal/domain"
	"github.com/roach88/kasir/internal/remote"
)

// Adjustment record constants for sales.
const (
	adjustmentReason = "Penjualan"
	adjustmentNotes  = "Transaction ID: %s"
)

// Poster writes a transaction to the remote service. Checkout and the sync
// engine both go through Post, so a replayed sale produces exactly the same
// remote records as a live one.
type Poster struct {
	remote remote.Service
	now    func() time.Time
}

// PosterOption configures a Poster.
type PosterOption func(*Poster)

// WithPosterClock sets the clock used for stock timestamps.
func WithPosterClock(now func() time.Time) PosterOption {
	return func(p *Poster) {
		p.now = now
	}
}

// NewPoster creates a Poster on svc.
func NewPoster(svc remote.Service, opts ...PosterOption) *Poster {
	p := &Poster{remote: svc, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Post writes the header, then one record per line item, then adjusts stock
// for every line.
//
// Header or item failures abort with a *PostError. Writes are sequential and
// not atomic: a header written before an item failure stays on the remote.
// Stock failures are logged and skipped per product.
func (p *Poster) Post(ctx context.Context, req domain.TransactionRequest) (*domain.CommittedTransaction, error) {
	id, err := p.remote.Insert(ctx, remote.Transactions, headerRecord(req))
	if err != nil {
		return nil, &PostError{Stage: StageHeader, Err: err}
	}

	for _, item := range req.Items {
		if _, err := p.remote.Insert(ctx, remote.TransactionItems, itemRecord(id, item)); err != nil {
			return nil, &PostError{Stage: StageItems, TransactionID: id, Err: err}
		}
	}

	for _, item := range req.Items {
		if err := p.adjustStock(ctx, id, item); err != nil {
			slog.Warn("stock update failed",
				"transaction_id", id,
				"product_id", item.ProductID,
				"error", err,
			)
		}
	}

	tx := req.Committed(id)
	tx.IsOffline = false
	return tx, nil
}

func headerRecord(req domain.TransactionRequest) remote.Record {
	rec := remote.Record{
		"user_id":         req.UserID,
		"subtotal":        req.Subtotal,
		"discount_amount": req.DiscountAmount,
		"tax_amount":      req.TaxAmount,
		"total_amount":    req.TotalAmount,
		"payment_method":  string(req.PaymentMethod),
		"payment_status":  string(req.PaymentStatus),
		"created_at":      remote.Timestamp(req.CreatedAt),
	}
	if req.CustomerName != "" {
		rec["customer_name"] = req.CustomerName
	}
	if req.Notes != "" {
		rec["notes"] = req.Notes
	}
	return rec
}

func itemRecord(txID string, item domain.LineItem) remote.Record {
	return remote.Record{
		"transaction_id": txID,
		"product_id":     item.ProductID,
		"product_name":   item.ProductName,
		"quantity":       item.Quantity,
		"unit_price":     item.UnitPrice,
		"subtotal":       item.Subtotal,
	}
}

// adjustStock decrements the product's stock row, creating it from the
// sale-time stock snapshot when the remote has none, then records the sale
// as a stock adjustment. Quantities never go below zero.
func (p *Poster) adjustStock(ctx context.Context, txID string, item domain.LineItem) error {
	rows, err := p.remote.Select(ctx, remote.Stock, remote.Where("product_id", item.ProductID).First())
	if err != nil {
		return fmt.Errorf("read stock: %w", err)
	}

	now := remote.Timestamp(p.now())
	if len(rows) == 0 {
		_, err := p.remote.Insert(ctx, remote.Stock, remote.Record{
			"product_id":          item.ProductID,
			"quantity":            max(0, item.StockSnapshot-item.Quantity),
			"low_stock_threshold": domain.DefaultLowStockThreshold,
			"updated_at":          now,
		})
		if err != nil {
			return fmt.Errorf("create stock: %w", err)
		}
	} else {
		current, err := rows[0].Int64("quantity")
		if err != nil {
			return fmt.Errorf("read stock quantity: %w", err)
		}
		err = p.remote.Update(ctx, remote.Stock, rows[0].ID(), remote.Record{
			"quantity":   max(0, int(current)-item.Quantity),
			"updated_at": now,
		})
		if err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
	}

	_, err = p.remote.Insert(ctx, remote.StockAdjustments, remote.Record{
		"product_id":      item.ProductID,
		"adjustment_type": domain.AdjustmentSale,
		"quantity":        item.Quantity,
		"reason":          adjustmentReason,
		"notes":           fmt.Sprintf(adjustmentNotes, txID),
		"created_at":      now,
	})
	if err != nil {
		return fmt.Errorf("record adjustment: %w", err)
	}
	return nil
}
