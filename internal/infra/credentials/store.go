package credentials

import (
	"context"
	"fmt"
	"strings"

	"carekorea/internal/infra"
	"carekorea/internal/sqlinline"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Providers lists the providers whose keys may be stored.
var Providers = []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini}

// Store reads and writes provider API keys kept in the provider_keys table.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Token returns the stored key for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectProviderKey, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// Resolve prefers the key from the environment and falls back to the stored one.
func (s *Store) Resolve(ctx context.Context, provider, envValue string) (string, error) {
	if v := strings.TrimSpace(envValue); v != "" {
		return v, nil
	}
	if s == nil || s.sql == nil {
		return "", nil
	}
	return s.Token(ctx, provider)
}

// Set stores key for provider, replacing any previous value.
func (s *Store) Set(ctx context.Context, provider, key string) error {
	provider, err := normalizeProvider(provider)
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%s api key is required", provider)
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertProviderKey, provider, key, "cli")
	return err
}

// Revoke disables the stored key for provider. It reports whether a key was
// active.
func (s *Store) Revoke(ctx context.Context, provider string) (bool, error) {
	provider, err := normalizeProvider(provider)
	if err != nil {
		return false, err
	}
	tag, err := s.sql.Exec(ctx, sqlinline.QRevokeProviderKey, provider)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func normalizeProvider(p string) (string, error) {
	p = strings.ToLower(strings.TrimSpace(p))
	for _, known := range Providers {
		if known == p {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", p)
}
