package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type call struct {
	query string
	args  []any
}

// stubExecutor answers queries by exact SQL constant.
type stubExecutor struct {
	calls    []call
	execTag  map[string]pgconn.CommandTag
	execErr  error
	rowFor   map[string]func(dest ...any) error
	rowsFor  map[string][][]any
	queryErr error
}

func newStubExecutor() *stubExecutor {
	return &stubExecutor{
		execTag: map[string]pgconn.CommandTag{},
		rowFor:  map[string]func(dest ...any) error{},
		rowsFor: map[string][][]any{},
	}
}

func (s *stubExecutor) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.calls = append(s.calls, call{query, args})
	if s.execErr != nil {
		return pgconn.CommandTag{}, s.execErr
	}
	return s.execTag[query], nil
}

func (s *stubExecutor) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	s.calls = append(s.calls, call{query, args})
	return stubRow{scan: s.rowFor[query]}
}

func (s *stubExecutor) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	s.calls = append(s.calls, call{query, args})
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return &stubRows{rows: s.rowsFor[query]}, nil
}

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type stubRows struct {
	rows [][]any
	idx  int
}

func (r *stubRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.rows) {
		return pgx.ErrNoRows
	}
	return assign(r.rows[r.idx-1], dest...)
}

func (r *stubRows) Err() error { return nil }

func (r *stubRows) Close() {}

func (r *stubRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *stubRows) Values() ([]any, error) {
	return nil, errors.New("values not supported in stub rows")
}

func (r *stubRows) RawValues() [][]byte { return nil }

func (r *stubRows) Conn() *pgx.Conn { return nil }

// assign copies values into scan destinations for the handful of types the
// repositories use.
func assign(values []any, dest ...any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: have %d values for %d destinations", len(values), len(dest))
	}
	for i, v := range values {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int64:
			*d = v.(int64)
		case *time.Time:
			*d = v.(time.Time)
		case **time.Time:
			if v == nil {
				*d = nil
			} else {
				t := v.(time.Time)
				*d = &t
			}
		default:
			return fmt.Errorf("scan: unsupported destination %T", dest[i])
		}
	}
	return nil
}
