// Package remote describes the remote data service the register writes
// completed sales to: a generic record store addressed by table kind with
// insert, update, filtered select and delete.
//
// Two implementations exist. memory keeps everything in process and is used
// by tests, the harness and demo mode. sqlremote talks to a SQL database
// through sqlx.
package remote

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Kind names a remote table.
type Kind string

const (
	Transactions     Kind = "transactions"
	TransactionItems Kind = "transaction_items"
	Stock            Kind = "stock"
	StockAdjustments Kind = "stock_adjustments"
	Settings         Kind = "settings"
)

// Kinds lists every table the register touches.
var Kinds = []Kind{Transactions, TransactionItems, Stock, StockAdjustments, Settings}

// Valid reports whether k is a known table.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

var (
	// ErrUnreachable is returned when the service cannot be contacted.
	ErrUnreachable = errors.New("remote service unreachable")
	// ErrNotFound is returned by Update and Delete for an unknown id.
	ErrNotFound = errors.New("record not found")
	// ErrUnknownKind is returned for a table the service does not serve.
	ErrUnknownKind = errors.New("unknown record kind")
)

// Order sorts a Select.
type Order struct {
	Column string
	Desc   bool
}

// Filter narrows a Select. Eq entries are ANDed.
type Filter struct {
	Eq    map[string]any
	Order *Order
	Limit int
}

// Where returns a filter with a single equality condition.
func Where(column string, value any) Filter {
	return Filter{Eq: map[string]any{column: value}}
}

// First limits f to one row.
func (f Filter) First() Filter {
	f.Limit = 1
	return f
}

// Service is the remote data service.
type Service interface {
	// Insert stores rec and returns the id the service assigned.
	Insert(ctx context.Context, kind Kind, rec Record) (string, error)
	// Update merges fields into the record with the given id.
	Update(ctx context.Context, kind Kind, id string, fields Record) error
	// Select returns the records matching f.
	Select(ctx context.Context, kind Kind, f Filter) ([]Record, error)
	// Delete removes the record with the given id.
	Delete(ctx context.Context, kind Kind, id string) error
}

// Record is one row. Column values are whatever the backend produced, so
// callers read them through the typed getters.
type Record map[string]any

// ID returns the "id" column.
func (r Record) ID() string {
	return r.String("id")
}

// String returns column as a string, or "" when absent.
func (r Record) String(column string) string {
	switch v := r[column].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Int64 returns column as an integer.
func (r Record) Int64(column string) (int64, error) {
	switch v := r[column].(type) {
	case nil:
		return 0, fmt.Errorf("column %q: missing", column)
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case decimal.Decimal:
		return v.IntPart(), nil
	case string:
		return parseInt(column, v)
	case []byte:
		return parseInt(column, string(v))
	default:
		return 0, fmt.Errorf("column %q: unsupported type %T", column, v)
	}
}

func parseInt(column, s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	dec, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", column, err)
	}
	return dec.IntPart(), nil
}

// Decimal returns column as a decimal.
func (r Record) Decimal(column string) (decimal.Decimal, error) {
	switch v := r[column].(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("column %q: missing", column)
	case decimal.Decimal:
		return v, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		return decimal.NewFromString(v)
	case []byte:
		return decimal.NewFromString(string(v))
	default:
		return decimal.Zero, fmt.Errorf("column %q: unsupported type %T", column, v)
	}
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Timestamp formats t the way every backend stores times.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
