package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type fakeQuerier struct {
	calls   []string
	execErr error
	scanErr error
	delay   time.Duration
	clock   *time.Time
}

func (f *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, sql)
	*f.clock = f.clock.Add(f.delay)
	return pgconn.NewCommandTag("UPDATE 1"), f.execErr
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.calls = append(f.calls, sql)
	return errorRow{err: f.scanErr}
}

func (f *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.calls = append(f.calls, sql)
	return nil, f.execErr
}

const markedUpdate = "--sql 4f55a9b7-4e9f-4e45-a3b3-5a532d21d9db\nupdate generation_jobs set status = 'running';\n"

func newTestRunner(q *fakeQuerier) (*SQLRunner, *bytes.Buffer) {
	var buf bytes.Buffer
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q.clock = &now
	r := NewSQLRunner(q, zerolog.New(&buf).Level(zerolog.DebugLevel))
	r.now = func() time.Time { return *q.clock }
	return r, &buf
}

func TestSQLRunnerStripsMarker(t *testing.T) {
	q := &fakeQuerier{}
	r, _ := newTestRunner(q)
	tag, err := r.Exec(context.Background(), markedUpdate)
	if err != nil {
		t.Fatalf("Exec error: %v", err)
	}
	if tag.RowsAffected() != 1 {
		t.Fatalf("RowsAffected = %d", tag.RowsAffected())
	}
	if len(q.calls) != 1 || strings.Contains(q.calls[0], "--sql") {
		t.Fatalf("marker reached the database: %q", q.calls)
	}
}

func TestSQLRunnerRefusesUnmarkedQuery(t *testing.T) {
	q := &fakeQuerier{}
	r, _ := newTestRunner(q)
	if _, err := r.Exec(context.Background(), "delete from content_keywords"); err == nil {
		t.Fatalf("expected error for unmarked query")
	}
	if err := r.QueryRow(context.Background(), "select 1").Scan(); err == nil {
		t.Fatalf("expected error from unmarked QueryRow")
	}
	if len(q.calls) != 0 {
		t.Fatalf("unmarked query reached the database: %q", q.calls)
	}
}

func TestSQLRunnerWrapsErrorsWithMarker(t *testing.T) {
	q := &fakeQuerier{execErr: &pgconn.PgError{Code: "23505"}}
	r, buf := newTestRunner(q)
	_, err := r.Exec(context.Background(), markedUpdate)
	var qe *QueryError
	if !errors.As(err, &qe) || qe.Marker != "4f55a9b7-4e9f-4e45-a3b3-5a532d21d9db" {
		t.Fatalf("expected QueryError, got %v", err)
	}
	if !IsUniqueViolation(err) {
		t.Fatalf("driver error not reachable through QueryError")
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("error not logged: %s", buf.String())
	}
}

func TestSQLRunnerKeepsNoRowsUnwrapped(t *testing.T) {
	q := &fakeQuerier{scanErr: pgx.ErrNoRows}
	r, buf := newTestRunner(q)
	err := r.QueryRow(context.Background(), markedUpdate).Scan()
	if err != pgx.ErrNoRows {
		t.Fatalf("expected bare ErrNoRows, got %v", err)
	}
	if strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("no rows logged as error: %s", buf.String())
	}
}

func TestSQLRunnerLogsSlowStatements(t *testing.T) {
	q := &fakeQuerier{delay: 2 * time.Second}
	r, buf := newTestRunner(q)
	if _, err := r.Exec(context.Background(), markedUpdate); err != nil {
		t.Fatalf("Exec error: %v", err)
	}
	if !strings.Contains(buf.String(), "slow sql") {
		t.Fatalf("slow statement not reported: %s", buf.String())
	}

	buf.Reset()
	r.WithSlowThreshold(0)
	if _, err := r.Exec(context.Background(), markedUpdate); err != nil {
		t.Fatalf("Exec error: %v", err)
	}
	if strings.Contains(buf.String(), "slow sql") {
		t.Fatalf("slow logging should be disabled: %s", buf.String())
	}
}

func TestExtractMarker(t *testing.T) {
	query := "--sql 4f55a9b7-4e9f-4e45-a3b3-5a532d21d9db\nselect 1;\n"
	marker, body, err := extractMarker(query)
	if err != nil {
		t.Fatalf("extractMarker returned error: %v", err)
	}
	if marker != "4f55a9b7-4e9f-4e45-a3b3-5a532d21d9db" {
		t.Fatalf("marker = %q", marker)
	}
	if body != "select 1;" {
		t.Fatalf("body = %q", body)
	}
}

func TestExtractMarkerRejectsUnmarkedQuery(t *testing.T) {
	cases := []string{
		"select 1;",
		"--sql not-a-uuid\nselect 1;",
		"",
	}
	for _, q := range cases {
		if _, _, err := extractMarker(q); err == nil {
			t.Fatalf("expected error for %q", q)
		}
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(fmt.Errorf("get keyword: %w", pgx.ErrNoRows)) {
		t.Fatalf("wrapped ErrNoRows not detected")
	}
	if IsNoRows(errors.New("boom")) {
		t.Fatalf("unexpected match")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})) {
		t.Fatalf("unique violation not detected")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation misreported")
	}
}
