// Package memory is an in-process remote.Service.
//
// Besides serving demo mode it lets tests cut the connection, inject
// failures on a specific operation and inspect the ordered log of every
// call the service received.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/kasir/internal/remote"
)

// Op names a Service method in failure rules and the call log.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpSelect Op = "select"
	OpDelete Op = "delete"
)

// ErrInjected is the default error returned by a failure rule.
var ErrInjected = errors.New("injected failure")

type failure struct {
	op        Op
	kind      remote.Kind // empty matches every kind
	remaining int
	err       error
}

// Service stores records per kind in insertion order.
type Service struct {
	mu        sync.RWMutex
	tables    map[remote.Kind][]remote.Record
	seq       map[remote.Kind]int
	reachable bool
	failures  []*failure
	calls     []string
	newID     func(kind remote.Kind) string
}

// Option configures a Service.
type Option func(*Service)

// WithSequentialIDs assigns ids of the form "<kind>-<n>" instead of UUIDv7.
// Traces compared against golden files need stable ids.
func WithSequentialIDs() Option {
	return func(s *Service) {
		s.newID = func(kind remote.Kind) string {
			s.seq[kind]++
			return fmt.Sprintf("%s-%d", kind, s.seq[kind])
		}
	}
}

// New returns an empty, reachable service.
func New(opts ...Option) *Service {
	s := &Service{
		tables:    make(map[remote.Kind][]remote.Record),
		seq:       make(map[remote.Kind]int),
		reachable: true,
		newID: func(remote.Kind) string {
			return uuid.Must(uuid.NewV7()).String()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetReachable toggles whether calls reach the service at all.
func (s *Service) SetReachable(reachable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reachable = reachable
}

// Reachable reports the current reachability.
func (s *Service) Reachable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reachable
}

// FailNext makes the next n calls of op on kind fail with err.
// An empty kind matches every kind; a nil err means ErrInjected.
func (s *Service) FailNext(op Op, kind remote.Kind, n int, err error) {
	if err == nil {
		err = ErrInjected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, &failure{op: op, kind: kind, remaining: n, err: err})
}

// Calls returns the call log, one line per call.
func (s *Service) Calls() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// ResetCalls empties the call log.
func (s *Service) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// Rows returns copies of every record of kind in insertion order.
func (s *Service) Rows(kind remote.Kind) []remote.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.tables[kind]
	out := make([]remote.Record, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

// Seed stores rec without logging a call or checking reachability.
// rec keeps its "id" when it has one.
func (s *Service) Seed(kind remote.Kind, rec remote.Record) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store(kind, rec)
}

func (s *Service) store(kind remote.Kind, rec remote.Record) string {
	row := rec.Clone()
	id := row.ID()
	if id == "" {
		id = s.newID(kind)
		row["id"] = id
	}
	s.tables[kind] = append(s.tables[kind], row)
	return id
}

// check must be called with mu held. It records the call and returns the
// error the call should fail with, if any.
func (s *Service) check(op Op, kind remote.Kind, detail string) error {
	var err error
	switch {
	case !s.reachable:
		err = remote.ErrUnreachable
	case !kind.Valid():
		err = fmt.Errorf("%w: %s", remote.ErrUnknownKind, kind)
	default:
		for i, f := range s.failures {
			if f.op != op || (f.kind != "" && f.kind != kind) {
				continue
			}
			err = f.err
			f.remaining--
			if f.remaining <= 0 {
				s.failures = append(s.failures[:i], s.failures[i+1:]...)
			}
			break
		}
	}

	line := fmt.Sprintf("%s %s %s", op, kind, detail)
	if err != nil {
		line += " !" + err.Error()
	}
	s.calls = append(s.calls, strings.TrimSpace(line))
	return err
}

// Insert implements remote.Service.
func (s *Service) Insert(ctx context.Context, kind remote.Kind, rec remote.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(OpInsert, kind, describeRecord(rec)); err != nil {
		return "", err
	}
	return s.store(kind, rec), nil
}

// Update implements remote.Service.
func (s *Service) Update(ctx context.Context, kind remote.Kind, id string, fields remote.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(OpUpdate, kind, id+" "+describeRecord(fields)); err != nil {
		return err
	}
	for _, row := range s.tables[kind] {
		if row.ID() == id {
			for k, v := range fields {
				if k == "id" {
					continue
				}
				row[k] = v
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s %s", remote.ErrNotFound, kind, id)
}

// Select implements remote.Service.
func (s *Service) Select(ctx context.Context, kind remote.Kind, f remote.Filter) ([]remote.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Failure rules mutate state, so even reads take the write lock.
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(OpSelect, kind, describeFilter(f)); err != nil {
		return nil, err
	}

	var out []remote.Record
	for _, row := range s.tables[kind] {
		if matches(row, f.Eq) {
			out = append(out, row.Clone())
		}
	}
	if f.Order != nil {
		col, desc := f.Order.Column, f.Order.Desc
		sort.SliceStable(out, func(i, j int) bool {
			c := compare(out[i][col], out[j][col])
			if desc {
				return c > 0
			}
			return c < 0
		})
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Delete implements remote.Service.
func (s *Service) Delete(ctx context.Context, kind remote.Kind, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(OpDelete, kind, id); err != nil {
		return err
	}
	rows := s.tables[kind]
	for i, row := range rows {
		if row.ID() == id {
			s.tables[kind] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s %s", remote.ErrNotFound, kind, id)
}

func matches(row remote.Record, eq map[string]any) bool {
	for col, want := range eq {
		if compare(row[col], want) != 0 {
			return false
		}
	}
	return true
}

// compare orders numbers numerically and everything else by its string form.
func compare(a, b any) int {
	da, errA := decimal.NewFromString(fmt.Sprint(a))
	db, errB := decimal.NewFromString(fmt.Sprint(b))
	if errA == nil && errB == nil {
		return da.Cmp(db)
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// describeRecord lists the column names of rec, which keeps log lines free
// of timestamps and generated ids.
func describeRecord(rec remote.Record) string {
	return "[" + strings.Join(sortedKeys(rec), " ") + "]"
}

func describeFilter(f remote.Filter) string {
	var parts []string
	for _, k := range sortedKeys(f.Eq) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, f.Eq[k]))
	}
	if f.Order != nil {
		dir := "asc"
		if f.Order.Desc {
			dir = "desc"
		}
		parts = append(parts, fmt.Sprintf("order=%s.%s", f.Order.Column, dir))
	}
	if f.Limit > 0 {
		parts = append(parts, fmt.Sprintf("limit=%d", f.Limit))
	}
	return strings.Join(parts, " ")
}
