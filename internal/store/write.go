package store

import (
	"context"
	"fmt"

	"github.com/roach88/kasir/internal/domain"
)

// Save appends a sale to the queue and returns its local id.
func (s *Store) Save(ctx context.Context, req domain.TransactionRequest) (int64, error) {
	payload, err := marshalPayload(req)
	if err != nil {
		return 0, fmt.Errorf("save pending transaction: %w", err)
	}

	db, err := s.open(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	res, err := db.ExecContext(ctx, `
		INSERT INTO pending_transactions (payload, created_at)
		VALUES (?, ?)
	`, payload, formatTime(s.now()))
	if err != nil {
		return 0, fmt.Errorf("%w: save pending transaction: %v", ErrUnavailable, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: save pending transaction: %v", ErrUnavailable, err)
	}
	return id, nil
}

// Remove deletes a queued sale. Removing an unknown id is not an error.
func (s *Store) Remove(ctx context.Context, localID int64) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, `DELETE FROM pending_transactions WHERE local_id = ?`, localID); err != nil {
		return fmt.Errorf("%w: remove pending transaction %d: %v", ErrUnavailable, localID, err)
	}
	return nil
}
