package domain

import (
	"fmt"
	"strings"
	"time"
)

// KeywordStatus enumerates keyword lifecycle states.
type KeywordStatus string

const (
	KeywordStatusPending    KeywordStatus = "pending"
	KeywordStatusGenerating KeywordStatus = "generating"
	KeywordStatusGenerated  KeywordStatus = "generated"
	KeywordStatusPublished  KeywordStatus = "published"
	KeywordStatusError      KeywordStatus = "error"
)

// ParseSettableStatus accepts only the statuses the keyword status API may set.
// The terminal error state is reserved for the orchestrator.
func ParseSettableStatus(raw string) (KeywordStatus, error) {
	switch s := KeywordStatus(strings.TrimSpace(raw)); s {
	case KeywordStatusPending, KeywordStatusGenerating, KeywordStatusGenerated, KeywordStatusPublished:
		return s, nil
	default:
		return "", NewValidationError(fmt.Sprintf("invalid status %q", raw))
	}
}

// Settled reports whether no run holds the keyword.
func (s KeywordStatus) Settled() bool {
	return s != KeywordStatusGenerating
}

// Keyword is the unit of work driven through the pipeline.
type Keyword struct {
	ID           string
	Text         string
	Locale       Locale
	Category     string
	Status       KeywordStatus
	Priority     int
	BlogPostID   *string
	ErrorMessage *string
	FailureCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks the fields a run depends on.
func (k *Keyword) Validate() error {
	var problems []string
	if strings.TrimSpace(k.ID) == "" {
		problems = append(problems, "keyword id is required")
	}
	if strings.TrimSpace(k.Text) == "" {
		problems = append(problems, "keyword text is required")
	}
	if !k.Locale.Valid() {
		problems = append(problems, fmt.Sprintf("invalid locale %q", k.Locale))
	}
	return NewValidationError(problems...)
}
