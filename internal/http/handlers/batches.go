package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"carekorea/internal/domain"
	"carekorea/internal/progress"
	"carekorea/internal/queue"
)

type batchRequest struct {
	KeywordIDs []string           `json:"keyword_ids"`
	Priority   int                `json:"priority"`
	Options    *domain.RunOptions `json:"options"`
}

type batchResponse struct {
	ID         string             `json:"id"`
	Status     domain.BatchStatus `json:"status"`
	Total      int                `json:"total"`
	Completed  int                `json:"completed"`
	Failed     int                `json:"failed"`
	IsComplete bool               `json:"is_complete"`
	Options    domain.RunOptions  `json:"options"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	Jobs       []jobResponse      `json:"jobs,omitempty"`
}

type jobResponse struct {
	ID           string           `json:"id"`
	KeywordID    string           `json:"keyword_id"`
	Keyword      string           `json:"keyword"`
	Priority     int              `json:"priority"`
	Status       domain.JobStatus `json:"status"`
	QualityScore *float64         `json:"quality_score"`
	BlogPostID   *string          `json:"blog_post_id"`
	ErrorMessage *string          `json:"error_message"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	FinishedAt   *time.Time       `json:"finished_at,omitempty"`
}

func batchDTO(b *domain.Batch, jobs []domain.Job) batchResponse {
	out := batchResponse{
		ID:         b.ID,
		Status:     b.Status,
		Total:      b.Total,
		Completed:  b.Completed,
		Failed:     b.Failed,
		IsComplete: b.IsComplete(),
		Options:    b.Options,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
	for _, j := range jobs {
		out.Jobs = append(out.Jobs, jobResponse{
			ID:           j.ID,
			KeywordID:    j.KeywordID,
			Keyword:      j.Keyword,
			Priority:     j.Priority,
			Status:       j.Status,
			QualityScore: j.QualityScore,
			BlogPostID:   j.BlogPostID,
			ErrorMessage: j.ErrorMessage,
			StartedAt:    j.StartedAt,
			FinishedAt:   j.FinishedAt,
		})
	}
	return out
}

// BatchCreate handles POST /v1/batches.
func (a *App) BatchCreate(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	opts := domain.DefaultRunOptions()
	if req.Options != nil {
		opts = *req.Options
	}
	batch, err := a.Queue.SubmitBatch(r.Context(), queue.SubmitRequest{
		KeywordIDs: req.KeywordIDs,
		Priority:   req.Priority,
		Options:    opts,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, batchDTO(batch, nil))
}

// BatchGet handles GET /v1/batches/{id}.
func (a *App) BatchGet(w http.ResponseWriter, r *http.Request) {
	snap, err := a.Queue.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, batchDTO(snap.Batch, snap.Jobs))
}

// BatchStream handles GET /v1/batches/{id}/stream. With start_worker=true the
// request drives the worker itself; otherwise it only watches.
func (a *App) BatchStream(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "id")
	drive := false
	if raw := r.URL.Query().Get("start_worker"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			a.fail(w, r, domain.NewValidationError("start_worker must be a boolean"))
			return
		}
		drive = v
	}
	// Surface an unknown batch as a plain 404 before switching to event-stream.
	if _, err := a.Queue.Snapshot(r.Context(), batchID); err != nil {
		a.fail(w, r, err)
		return
	}
	sse, err := progress.NewSSEWriter(w)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	logger := a.Logger.With().Str("batch_id", batchID).Bool("start_worker", drive).Logger()
	logger.Info().Msg("progress stream opened")

	if drive {
		err = a.Queue.DriveBatch(r.Context(), batchID, sse, a.Stream)
	} else {
		err = a.Queue.WatchBatch(r.Context(), batchID, sse, a.Stream)
	}
	if err != nil {
		logger.Info().Err(err).Msg("progress stream ended early")
		_ = sse.Report(r.Context(), progress.Event{Type: progress.EventError, Data: progress.Message{Message: err.Error(), Timestamp: time.Now()}})
		return
	}
	logger.Info().Msg("progress stream closed")
}
