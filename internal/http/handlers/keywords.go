package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"carekorea/internal/domain"
)

type keywordStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type keywordResponse struct {
	ID           string               `json:"id"`
	Keyword      string               `json:"keyword"`
	Locale       domain.Locale        `json:"locale"`
	Category     string               `json:"category,omitempty"`
	Status       domain.KeywordStatus `json:"status"`
	Priority     int                  `json:"priority"`
	BlogPostID   *string              `json:"blog_post_id,omitempty"`
	ErrorMessage *string              `json:"error_message,omitempty"`
	FailureCount int                  `json:"failure_count"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

func keywordDTO(k *domain.Keyword) keywordResponse {
	return keywordResponse{
		ID:           k.ID,
		Keyword:      k.Text,
		Locale:       k.Locale,
		Category:     k.Category,
		Status:       k.Status,
		Priority:     k.Priority,
		BlogPostID:   k.BlogPostID,
		ErrorMessage: k.ErrorMessage,
		FailureCount: k.FailureCount,
		UpdatedAt:    k.UpdatedAt,
	}
}

// KeywordSetStatus handles PATCH /v1/keywords/{id}/status.
func (a *App) KeywordSetStatus(w http.ResponseWriter, r *http.Request) {
	var req keywordStatusRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.fail(w, r, invalid(err))
		return
	}
	status, err := domain.ParseSettableStatus(req.Status)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	kw, err := a.Keywords.SetStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, keywordDTO(kw))
}

// KeywordGenerate handles POST /v1/keywords/{id}/generate. The body is the run
// options; an empty body uses the defaults.
func (a *App) KeywordGenerate(w http.ResponseWriter, r *http.Request) {
	opts := domain.DefaultRunOptions()
	if err := a.decode(r, &opts); err != nil {
		a.fail(w, r, err)
		return
	}
	res := a.Pipeline.Run(r.Context(), chi.URLParam(r, "id"), opts)
	a.json(w, statusFor(res.ErrorCategory), res)
}
