package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"carekorea/internal/domain"
)

type errorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{"error": errorBody{Code: code, Message: message}})
}

// fail writes err using its category to pick the status code.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	category := domain.CategoryOf(err)
	status := statusFor(category)
	body := errorBody{Code: codeFor(category), Message: err.Error(), Details: domain.ValidationProblems(err)}
	if status >= http.StatusInternalServerError {
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		if category == domain.CategoryPersistence {
			body.Message = "internal error"
		}
	}
	a.json(w, status, map[string]any{"error": body})
}

func statusFor(c domain.ErrorCategory) int {
	switch c {
	case domain.CategoryNone, domain.CategoryImagePartial:
		return http.StatusOK
	case domain.CategoryValidation:
		return http.StatusBadRequest
	case domain.CategoryAlreadyInProgress:
		return http.StatusConflict
	case domain.CategoryNotFound:
		return http.StatusNotFound
	case domain.CategoryGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(c domain.ErrorCategory) string {
	switch c {
	case domain.CategoryValidation:
		return "bad_request"
	case domain.CategoryAlreadyInProgress:
		return "already_in_progress"
	case domain.CategoryNotFound:
		return "not_found"
	case domain.CategoryGeneration:
		return "generation_failed"
	default:
		return "internal"
	}
}

// invalid converts validator output into a domain validation error.
func invalid(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidationError(err.Error())
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return domain.NewValidationError(problems...)
}
