// Package sqlremote implements remote.Service on a SQL database through
// sqlx. Production uses Postgres through the pgx stdlib driver; single-box
// installs and tests use SQLite.
package sqlremote

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/kasir/internal/remote"
)

//go:embed schema.sql
var schemaSQL string

// Drivers accepted by Open.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Service is a remote.Service backed by *sqlx.DB.
type Service struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Connect prepares a connection pool without touching the network, so a
// register can start while the database is unreachable. timeout bounds
// every call; zero disables it.
func Connect(driver, dsn string, timeout time.Duration) (*Service, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported remote driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open remote: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	return &Service{db: db, timeout: timeout}, nil
}

// Open connects to the database and pings it.
func Open(ctx context.Context, driver, dsn string, timeout time.Duration) (*Service, error) {
	s, err := Connect(driver, dsn, timeout)
	if err != nil {
		return nil, err
	}
	if err := s.Ping(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection.
func New(db *sqlx.DB, timeout time.Duration) *Service {
	return &Service{db: db, timeout: timeout}
}

// EnsureSchema creates the register's tables when they are missing.
// Only used for SQLite; a Postgres service owns its own schema.
func (s *Service) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create remote schema: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", remote.ErrUnreachable, err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Service) Close() error {
	return s.db.Close()
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func table(kind remote.Kind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %s", remote.ErrUnknownKind, kind)
	}
	return string(kind), nil
}

func columns(rec remote.Record) ([]string, error) {
	cols := make([]string, 0, len(rec))
	for c := range rec {
		if !identifier.MatchString(c) {
			return nil, fmt.Errorf("invalid column name %q", c)
		}
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols, nil
}

// Insert implements remote.Service. Ids are UUIDv7 generated client side
// unless rec carries one.
func (s *Service) Insert(ctx context.Context, kind remote.Kind, rec remote.Record) (string, error) {
	tbl, err := table(kind)
	if err != nil {
		return "", err
	}

	row := rec.Clone()
	id := row.ID()
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
		row["id"] = id
	}

	cols, err := columns(row)
	if err != nil {
		return "", err
	}
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = row[c]
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := s.db.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tbl, strings.Join(cols, ", "), marks))

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert %s: %w", kind, err)
	}
	return id, nil
}

// Update implements remote.Service.
func (s *Service) Update(ctx context.Context, kind remote.Kind, id string, fields remote.Record) error {
	tbl, err := table(kind)
	if err != nil {
		return err
	}

	set := fields.Clone()
	delete(set, "id")
	cols, err := columns(set)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return nil
	}

	assigns := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		assigns[i] = c + " = ?"
		args = append(args, set[c])
	}
	args = append(args, id)
	query := s.db.Rebind(fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", tbl, strings.Join(assigns, ", ")))

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", kind, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s %s", remote.ErrNotFound, kind, id)
	}
	return nil
}

// Select implements remote.Service.
func (s *Service) Select(ctx context.Context, kind remote.Kind, f remote.Filter) ([]remote.Record, error) {
	tbl, err := table(kind)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	var args []any
	fmt.Fprintf(&b, "SELECT * FROM %s", tbl)

	eqCols, err := columns(remote.Record(f.Eq))
	if err != nil {
		return nil, err
	}
	for i, c := range eqCols {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(c + " = ?")
		args = append(args, f.Eq[c])
	}

	if f.Order != nil {
		if !identifier.MatchString(f.Order.Column) {
			return nil, fmt.Errorf("invalid order column %q", f.Order.Column)
		}
		dir := "ASC"
		if f.Order.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", f.Order.Column, dir)
	}
	if f.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", f.Limit)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(b.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", kind, err)
	}
	defer rows.Close()

	var out []remote.Record
	for rows.Next() {
		m := make(map[string]any)
		if err := rows.MapScan(m); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		out = append(out, remote.Record(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, err)
	}
	return out, nil
}

// Delete implements remote.Service.
func (s *Service) Delete(ctx context.Context, kind remote.Kind, id string) error {
	tbl, err := table(kind)
	if err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, s.db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", tbl)), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s %s", remote.ErrNotFound, kind, id)
	}
	return nil
}
