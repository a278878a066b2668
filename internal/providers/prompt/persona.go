package prompt

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"carekorea/internal/domain"
)

// PersonaSelector picks the author persona for a locale and category.
type PersonaSelector struct {
	repo   domain.PersonaRepository
	logger zerolog.Logger
}

func NewPersonaSelector(repo domain.PersonaRepository, logger zerolog.Logger) *PersonaSelector {
	return &PersonaSelector{repo: repo, logger: logger}
}

// Select never fails: a missing row or lookup error yields the default persona.
func (s *PersonaSelector) Select(ctx context.Context, locale domain.Locale, category string) domain.Persona {
	if s == nil || s.repo == nil {
		return domain.DefaultPersona(locale)
	}
	p, err := s.repo.FindForLocale(ctx, locale, category)
	switch {
	case err == nil && p != nil:
		return *p
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		s.logger.Warn().Err(err).Str("locale", string(locale)).Str("category", category).Msg("persona lookup failed, using default")
	}
	return domain.DefaultPersona(locale)
}

// RecordUsage bumps the persona usage counter. Failures are logged only.
func (s *PersonaSelector) RecordUsage(ctx context.Context, p domain.Persona) {
	if s == nil || s.repo == nil || p.IsDefault() {
		return
	}
	if err := s.repo.IncrementUsage(ctx, p.ID); err != nil {
		s.logger.Warn().Err(err).Str("persona_id", p.ID).Msg("persona usage increment failed")
	}
}
