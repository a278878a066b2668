package repo

import (
	"fmt"

	"carekorea/internal/domain"
	"carekorea/internal/infra"
)

// wrapErr maps an empty result to domain.ErrNotFound and anything else to domain.ErrPersistence.
func wrapErr(op string, err error) error {
	if infra.IsNoRows(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}
