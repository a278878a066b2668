package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"carekorea/internal/domain"
	"carekorea/internal/infra"
	"carekorea/internal/sqlinline"
)

// KeywordRepositoryPG implements domain.KeywordRepository backed by PostgreSQL.
type KeywordRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewKeywordRepository creates a new KeywordRepositoryPG.
func NewKeywordRepository(sql infra.SQLExecutor) *KeywordRepositoryPG {
	return &KeywordRepositoryPG{sql: sql}
}

// Get fetches a keyword by id.
func (r *KeywordRepositoryPG) Get(ctx context.Context, id string) (*domain.Keyword, error) {
	kw, err := scanKeyword(r.sql.QueryRow(ctx, sqlinline.QSelectKeyword, id))
	if err != nil {
		return nil, wrapErr("get keyword", err)
	}
	return kw, nil
}

// BeginGeneration atomically moves the keyword into generating.
func (r *KeywordRepositoryPG) BeginGeneration(ctx context.Context, id string) (*domain.Keyword, error) {
	kw, err := scanKeyword(r.sql.QueryRow(ctx, sqlinline.QBeginKeywordGeneration, id))
	if err == nil {
		return kw, nil
	}
	if !infra.IsNoRows(err) {
		return nil, wrapErr("begin generation", err)
	}
	// No row matched: either the keyword is missing or a run already holds it.
	if _, getErr := r.Get(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("keyword %s: %w", id, domain.ErrAlreadyInProgress)
}

// MarkGenerated links the post and settles the keyword in status.
func (r *KeywordRepositoryPG) MarkGenerated(ctx context.Context, id, blogPostID string, status domain.KeywordStatus) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkKeywordGenerated, id, blogPostID, string(status))
	if err != nil {
		return wrapErr("mark keyword generated", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("keyword %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Rollback releases a generating keyword. A keyword no longer generating is left
// untouched and its current status is returned.
func (r *KeywordRepositoryPG) Rollback(ctx context.Context, id, errMsg string, maxFailures int) (domain.KeywordStatus, error) {
	var status string
	err := r.sql.QueryRow(ctx, sqlinline.QRollbackKeyword, id, domain.TruncateDiagnostic(errMsg), maxFailures).Scan(&status)
	if err == nil {
		return domain.KeywordStatus(status), nil
	}
	if !infra.IsNoRows(err) {
		return "", wrapErr("rollback keyword", err)
	}
	kw, getErr := r.Get(ctx, id)
	if getErr != nil {
		return "", getErr
	}
	return kw.Status, nil
}

// SetStatus overwrites the status from the keyword status API.
func (r *KeywordRepositoryPG) SetStatus(ctx context.Context, id string, status domain.KeywordStatus) (*domain.Keyword, error) {
	kw, err := scanKeyword(r.sql.QueryRow(ctx, sqlinline.QSetKeywordStatus, id, string(status)))
	if err != nil {
		return nil, wrapErr("set keyword status", err)
	}
	return kw, nil
}

// ListPending returns pending keywords by priority, oldest first.
func (r *KeywordRepositoryPG) ListPending(ctx context.Context, limit int) ([]domain.Keyword, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListPendingKeywords, limit)
	if err != nil {
		return nil, wrapErr("list pending keywords", err)
	}
	defer rows.Close()

	var out []domain.Keyword
	for rows.Next() {
		kw, err := scanKeyword(rows)
		if err != nil {
			return nil, wrapErr("scan keyword", err)
		}
		out = append(out, *kw)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list pending keywords", err)
	}
	return out, nil
}

// ResetStale returns keywords stuck in generating for longer than olderThan to pending.
func (r *KeywordRepositoryPG) ResetStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QResetStaleKeywords, olderThan.Seconds())
	if err != nil {
		return 0, wrapErr("reset stale keywords", err)
	}
	return tag.RowsAffected(), nil
}

func scanKeyword(row pgx.Row) (*domain.Keyword, error) {
	var (
		kw             domain.Keyword
		locale, status string
	)
	if err := row.Scan(
		&kw.ID,
		&kw.Text,
		&locale,
		&kw.Category,
		&status,
		&kw.Priority,
		&kw.BlogPostID,
		&kw.ErrorMessage,
		&kw.FailureCount,
		&kw.CreatedAt,
		&kw.UpdatedAt,
	); err != nil {
		return nil, err
	}
	kw.Locale = domain.Locale(locale)
	if parsed, err := domain.ParseLocale(locale); err == nil {
		kw.Locale = parsed
	}
	kw.Status = domain.KeywordStatus(status)
	return &kw, nil
}

var _ domain.KeywordRepository = (*KeywordRepositoryPG)(nil)
