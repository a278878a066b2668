package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrAlreadyInProgress   = errors.New("keyword already generating")
	ErrGeneration          = errors.New("generation failed")
	ErrContentParse        = fmt.Errorf("%w: content parse", ErrGeneration)
	ErrImagePartialFailure = errors.New("image partial failure")
	ErrPersistence         = errors.New("persistence failed")
	ErrNotFound            = errors.New("not found")
)

// ErrorCategory names the error taxonomy reported on results and HTTP responses.
type ErrorCategory string

const (
	CategoryNone              ErrorCategory = ""
	CategoryValidation        ErrorCategory = "ValidationError"
	CategoryAlreadyInProgress ErrorCategory = "AlreadyInProgressError"
	CategoryGeneration        ErrorCategory = "GenerationError"
	CategoryImagePartial      ErrorCategory = "ImagePartialFailure"
	CategoryPersistence       ErrorCategory = "PersistenceError"
	CategoryNotFound          ErrorCategory = "NotFoundError"
)

// CategoryOf maps err onto the error taxonomy. Unknown errors are treated as
// persistence failures since every other external call is classified at its source.
func CategoryOf(err error) ErrorCategory {
	switch {
	case err == nil:
		return CategoryNone
	case errors.Is(err, ErrValidation):
		return CategoryValidation
	case errors.Is(err, ErrAlreadyInProgress):
		return CategoryAlreadyInProgress
	case errors.Is(err, ErrNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrGeneration):
		return CategoryGeneration
	case errors.Is(err, ErrImagePartialFailure):
		return CategoryImagePartial
	default:
		return CategoryPersistence
	}
}

// ValidationError collects field level problems for a single input.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError returns nil when problems is empty.
func NewValidationError(problems ...string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

// ValidationProblems returns the problem list carried by err, if any.
func ValidationProblems(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Problems
	}
	return nil
}

// MaxDiagnosticRunes bounds diagnostic strings stored on keyword rows.
const MaxDiagnosticRunes = 500

// TruncateDiagnostic shortens msg to MaxDiagnosticRunes runes.
func TruncateDiagnostic(msg string) string {
	msg = strings.TrimSpace(msg)
	if utf8.RuneCountInString(msg) <= MaxDiagnosticRunes {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:MaxDiagnosticRunes-3]) + "..."
}
