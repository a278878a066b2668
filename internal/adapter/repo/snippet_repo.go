package repo

import (
	"context"
	"strconv"
	"strings"

	"carekorea/internal/domain"
	"carekorea/internal/infra"
	"carekorea/internal/sqlinline"
)

// SnippetRepositoryPG implements domain.SnippetRepository over the pgvector content_snippets table.
type SnippetRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewSnippetRepository creates a new SnippetRepositoryPG.
func NewSnippetRepository(sql infra.SQLExecutor) *SnippetRepositoryPG {
	return &SnippetRepositoryPG{sql: sql}
}

// Nearest returns up to limit snippets closest to embedding.
func (r *SnippetRepositoryPG) Nearest(ctx context.Context, embedding []float32, locale domain.Locale, category string, limit int) ([]domain.Snippet, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectNearestSnippets, vectorLiteral(embedding), string(locale), category, limit)
	if err != nil {
		return nil, wrapErr("nearest snippets", err)
	}
	defer rows.Close()

	var out []domain.Snippet
	for rows.Next() {
		var s domain.Snippet
		if err := rows.Scan(&s.PostID, &s.Title, &s.Text, &s.PerformanceScore, &s.Distance); err != nil {
			return nil, wrapErr("scan snippet", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("nearest snippets", err)
	}
	return out, nil
}

// vectorLiteral renders the pgvector text form, e.g. [0.1,0.2].
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

var _ domain.SnippetRepository = (*SnippetRepositoryPG)(nil)
