package repo

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type call struct {
	query string
	args  []any
}

// stubExecutor replays queued rows in call order and records every statement.
type stubExecutor struct {
	rows    []pgx.Row
	results [][][]any
	tag     pgconn.CommandTag
	execErr error
	calls   []call
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.calls = append(s.calls, call{query: query, args: args})
	return s.tag, s.execErr
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.calls = append(s.calls, call{query: query, args: args})
	if len(s.rows) == 0 {
		return simpleRow{err: pgx.ErrNoRows}
	}
	row := s.rows[0]
	s.rows = s.rows[1:]
	return row
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.calls = append(s.calls, call{query: query, args: args})
	if len(s.results) == 0 {
		return &testRows{}, nil
	}
	res := s.results[0]
	s.results = s.results[1:]
	return &testRows{values: res}, nil
}

// simpleRow assigns values to scan destinations by reflection.
type simpleRow struct {
	values []any
	err    error
}

func rowOf(values ...any) simpleRow { return simpleRow{values: values} }

func errRow(err error) simpleRow { return simpleRow{err: err} }

func (r simpleRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

func assign(dest, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if values[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		v := reflect.ValueOf(values[i])
		switch {
		case v.Type().AssignableTo(target.Type()):
			target.Set(v)
		case v.Type().ConvertibleTo(target.Type()):
			target.Set(v.Convert(target.Type()))
		case target.Kind() == reflect.Pointer && v.Type().AssignableTo(target.Type().Elem()):
			ptr := reflect.New(target.Type().Elem())
			ptr.Elem().Set(v)
			target.Set(ptr)
		default:
			return fmt.Errorf("scan: cannot assign %s to %s at %d", v.Type(), target.Type(), i)
		}
	}
	return nil
}

type testRows struct {
	values [][]any
	pos    int
}

func (r *testRows) Close() {}

func (r *testRows) Err() error { return nil }

func (r *testRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (r *testRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *testRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *testRows) Scan(dest ...any) error {
	return assign(dest, r.values[r.pos-1])
}

func (r *testRows) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (r *testRows) RawValues() [][]byte { return nil }

func (r *testRows) Conn() *pgx.Conn { return nil }
