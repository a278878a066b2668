package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"carekorea/internal/domain"
	"carekorea/internal/pipeline"
	"carekorea/internal/progress"
	"carekorea/internal/queue"
)

// Pipeline runs generation for one keyword.
type Pipeline interface {
	Run(ctx context.Context, keywordID string, opts domain.RunOptions) *pipeline.Result
}

// Queue is the batch surface the handlers drive.
type Queue interface {
	SubmitBatch(ctx context.Context, req queue.SubmitRequest) (*domain.Batch, error)
	Snapshot(ctx context.Context, batchID string) (*queue.Snapshot, error)
	DriveBatch(ctx context.Context, batchID string, reporter progress.Reporter, limits queue.StreamLimits) error
	WatchBatch(ctx context.Context, batchID string, reporter progress.Reporter, limits queue.StreamLimits) error
}

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	Keywords domain.KeywordRepository
	Pipeline Pipeline
	Queue    Queue
	DB       Pinger
	Stream   queue.StreamLimits
	Logger   zerolog.Logger

	validate *validator.Validate
}

func NewApp(keywords domain.KeywordRepository, p Pipeline, q Queue, db Pinger, stream queue.StreamLimits, logger zerolog.Logger) *App {
	return &App{
		Keywords: keywords,
		Pipeline: p,
		Queue:    q,
		DB:       db,
		Stream:   stream,
		Logger:   logger,
		validate: validator.New(),
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body. An empty body leaves v untouched.
func (a *App) decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.NewValidationError("invalid payload: " + err.Error())
	}
	return nil
}
