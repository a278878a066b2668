package pipeline

import (
	"carekorea/internal/domain"
)

// Result is the structured outcome of one run. Callers never receive a raw error.
type Result struct {
	Success           bool                  `json:"success"`
	AlreadyInProgress bool                  `json:"already_in_progress,omitempty"`
	KeywordID         string                `json:"keyword_id"`
	KeywordStatus     domain.KeywordStatus  `json:"keyword_status,omitempty"`
	BlogPostID        string                `json:"blog_post_id,omitempty"`
	Slug              string                `json:"slug,omitempty"`
	Title             string                `json:"title,omitempty"`
	ImagesGenerated   int                   `json:"images_generated"`
	TotalCost         float64               `json:"total_cost"`
	QualityScore      *float64              `json:"quality_score,omitempty"`
	Error             string                `json:"error,omitempty"`
	ErrorCategory     domain.ErrorCategory  `json:"error_category,omitempty"`
	ValidationErrors  []string              `json:"validation_errors,omitempty"`
	Errors            []domain.ImageFailure `json:"errors,omitempty"`
	DurationMS        int64                 `json:"duration_ms"`
}

func failure(keywordID string, err error) *Result {
	return &Result{
		KeywordID:        keywordID,
		Error:            domain.TruncateDiagnostic(err.Error()),
		ErrorCategory:    domain.CategoryOf(err),
		ValidationErrors: domain.ValidationProblems(err),
	}
}

func alreadyInProgress(keywordID string) *Result {
	return &Result{
		KeywordID:         keywordID,
		AlreadyInProgress: true,
		KeywordStatus:     domain.KeywordStatusGenerating,
		Error:             domain.ErrAlreadyInProgress.Error(),
		ErrorCategory:     domain.CategoryAlreadyInProgress,
	}
}
