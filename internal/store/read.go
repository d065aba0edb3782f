package store

import (
	"context"
	"fmt"

	"github.com/roach88/kasir/internal/domain"
)

// GetAll returns every queued sale ordered by local id.
//
// Returns an empty slice (not nil) when the queue is empty. A row whose
// payload cannot be decoded is returned with Err set.
func (s *Store) GetAll(ctx context.Context) ([]domain.PendingTransaction, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT local_id, payload, created_at
		FROM pending_transactions
		ORDER BY local_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query pending transactions: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	pending := []domain.PendingTransaction{}
	for rows.Next() {
		var (
			p         domain.PendingTransaction
			payload   string
			createdAt string
		)
		if err := rows.Scan(&p.LocalID, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending transaction: %w", err)
		}
		if p.Payload, err = unmarshalPayload(payload); err != nil {
			p.Err = fmt.Errorf("pending transaction %d: %w", p.LocalID, err)
		}
		if p.Timestamp, err = parseTime(createdAt); err != nil && p.Err == nil {
			p.Err = fmt.Errorf("pending transaction %d: %w", p.LocalID, err)
		}
		pending = append(pending, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate pending transactions: %v", ErrUnavailable, err)
	}

	return pending, nil
}

// Count returns the number of queued sales.
func (s *Store) Count(ctx context.Context) (int, error) {
	db, err := s.open(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count pending transactions: %v", ErrUnavailable, err)
	}
	return n, nil
}
