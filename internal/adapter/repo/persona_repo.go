package repo

import (
	"context"

	"carekorea/internal/domain"
	"carekorea/internal/infra"
	"carekorea/internal/sqlinline"
)

// PersonaRepositoryPG implements domain.PersonaRepository backed by PostgreSQL.
type PersonaRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewPersonaRepository creates a new PersonaRepositoryPG.
func NewPersonaRepository(sql infra.SQLExecutor) *PersonaRepositoryPG {
	return &PersonaRepositoryPG{sql: sql}
}

// FindForLocale returns the best persona writing in locale, preferring one
// specialized in category. It returns domain.ErrNotFound when none exists.
func (r *PersonaRepositoryPG) FindForLocale(ctx context.Context, locale domain.Locale, category string) (*domain.Persona, error) {
	p := domain.Persona{Locale: locale}
	err := r.sql.QueryRow(ctx, sqlinline.QSelectPersonaForLocale, string(locale), category).Scan(
		&p.ID,
		&p.Name,
		&p.Specialty,
		&p.Experience,
		&p.Voice,
		&p.Greeting,
		&p.Perspective,
		&p.UsageCount,
	)
	if err != nil {
		return nil, wrapErr("find persona", err)
	}
	return &p, nil
}

// IncrementUsage bumps the persona usage counter.
func (r *PersonaRepositoryPG) IncrementUsage(ctx context.Context, id string) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QIncrementPersonaUsage, id); err != nil {
		return wrapErr("increment persona usage", err)
	}
	return nil
}

var _ domain.PersonaRepository = (*PersonaRepositoryPG)(nil)
