package infra

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// SQLExecutor is what repositories need to run marked inline SQL.
type SQLExecutor interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

// Querier is the subset of *pgxpool.Pool (or pgx.Tx) the runner drives.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var markerRegexp = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// DefaultSlowQuery is the latency above which a statement is logged at warn.
const DefaultSlowQuery = 500 * time.Millisecond

// QueryError tags a database failure with the marker of the statement that
// produced it. errors.Is/As see through to the driver error.
type QueryError struct {
	Marker string
	Err    error
}

func (e *QueryError) Error() string { return fmt.Sprintf("sql %s: %v", e.Marker, e.Err) }
func (e *QueryError) Unwrap() error { return e.Err }

// SQLRunner strips the --sql marker off each statement, runs it, and logs
// latency by marker. Unmarked statements are refused.
type SQLRunner struct {
	db     Querier
	logger zerolog.Logger
	slow   time.Duration
	now    func() time.Time
}

func NewSQLRunner(db Querier, logger zerolog.Logger) *SQLRunner {
	return &SQLRunner{db: db, logger: logger, slow: DefaultSlowQuery, now: time.Now}
}

// WithSlowThreshold overrides DefaultSlowQuery. Zero disables slow logging.
func (r *SQLRunner) WithSlowThreshold(d time.Duration) *SQLRunner {
	r.slow = d
	return r
}

func (r *SQLRunner) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	marker, body, err := extractMarker(query)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	start := r.now()
	tag, err := r.db.Exec(ctx, body, args...)
	r.observe(marker, "exec", start, err)
	if err != nil {
		return tag, &QueryError{Marker: marker, Err: err}
	}
	return tag, nil
}

func (r *SQLRunner) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	marker, body, err := extractMarker(query)
	if err != nil {
		return errorRow{err: err}
	}
	return &observedRow{row: r.db.QueryRow(ctx, body, args...), runner: r, marker: marker, start: r.now()}
}

func (r *SQLRunner) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	marker, body, err := extractMarker(query)
	if err != nil {
		return nil, err
	}
	start := r.now()
	rows, err := r.db.Query(ctx, body, args...)
	if err != nil {
		r.observe(marker, "query", start, err)
		return nil, &QueryError{Marker: marker, Err: err}
	}
	return &observedRows{Rows: rows, runner: r, marker: marker, start: start}, nil
}

func (r *SQLRunner) observe(marker, op string, start time.Time, err error) {
	elapsed := r.now().Sub(start)
	switch {
	case err != nil && !IsNoRows(err):
		r.logger.Error().Err(err).Str("sql", marker).Str("op", op).Dur("elapsed", elapsed).Msg("sql error")
	case r.slow > 0 && elapsed >= r.slow:
		r.logger.Warn().Str("sql", marker).Str("op", op).Dur("elapsed", elapsed).Msg("slow sql")
	default:
		r.logger.Debug().Str("sql", marker).Str("op", op).Dur("elapsed", elapsed).Msg("sql")
	}
}

type observedRow struct {
	row    pgx.Row
	runner *SQLRunner
	marker string
	start  time.Time
}

// Scan keeps pgx.ErrNoRows unwrapped so callers can compare it directly.
func (o *observedRow) Scan(dest ...any) error {
	err := o.row.Scan(dest...)
	o.runner.observe(o.marker, "query_row", o.start, err)
	if err != nil && !IsNoRows(err) {
		return &QueryError{Marker: o.marker, Err: err}
	}
	return err
}

type observedRows struct {
	pgx.Rows
	runner *SQLRunner
	marker string
	start  time.Time
	closed bool
}

func (o *observedRows) Close() {
	o.Rows.Close()
	if o.closed {
		return
	}
	o.closed = true
	o.runner.observe(o.marker, "query", o.start, o.Rows.Err())
}

type errorRow struct {
	err error
}

func (e errorRow) Scan(dest ...any) error {
	return e.err
}

func extractMarker(query string) (string, string, error) {
	trimmed := strings.TrimSpace(query)
	head, body, _ := strings.Cut(trimmed, "\n")
	head = strings.TrimSpace(head)
	if !markerRegexp.MatchString(head) {
		return "", "", errors.New("sql marker missing or invalid")
	}
	return strings.TrimPrefix(head, "--sql "), strings.TrimSpace(body), nil
}

// IsNoRows reports whether err signals an empty single-row result.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ SQLExecutor = (*SQLRunner)(nil)
