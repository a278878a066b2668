// Package queue turns submitted batches into sequential pipeline runs.
package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"carekorea/internal/domain"
	"carekorea/internal/pipeline"
	"carekorea/internal/progress"
)

// Runner executes the pipeline for one keyword.
type Runner interface {
	Run(ctx context.Context, keywordID string, opts domain.RunOptions) *pipeline.Result
}

// Worker claims queued jobs one at a time and reports progress. It never retries
// a failed job; resubmission is an explicit new batch.
type Worker struct {
	jobs     domain.JobRepository
	runner   Runner
	logger   zerolog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// JobResult is the outcome of one processed job.
type JobResult struct {
	Job    domain.Job
	Result *pipeline.Result
	Batch  *domain.Batch
}

// Snapshot is a batch with its jobs.
type Snapshot struct {
	Batch *domain.Batch
	Jobs  []domain.Job
}

// SubmitRequest describes a new batch.
type SubmitRequest struct {
	KeywordIDs []string `validate:"required,min=1,max=500,dive,required"`
	Priority   int      `validate:"min=-100,max=100"`
	Options    domain.RunOptions
}

func NewWorker(jobs domain.JobRepository, runner Runner, logger zerolog.Logger) *Worker {
	return &Worker{
		jobs:     jobs,
		runner:   runner,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
}

// SubmitBatch queues one job per distinct keyword id.
func (w *Worker) SubmitBatch(ctx context.Context, req SubmitRequest) (*domain.Batch, error) {
	req.KeywordIDs = dedupe(req.KeywordIDs)
	if err := w.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	batch, err := w.jobs.CreateBatch(ctx, req.KeywordIDs, req.Priority, req.Options)
	if err != nil {
		return nil, err
	}
	w.logger.Info().Str("batch_id", batch.ID).Int("total", batch.Total).Msg("batch submitted")
	return batch, nil
}

// ProcessNextJob claims and runs the next queued job. It returns nil, nil when no
// queued job remains. An empty batchID claims across batches.
func (w *Worker) ProcessNextJob(ctx context.Context, batchID string, reporter progress.Reporter) (*JobResult, error) {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	job, err := w.jobs.ClaimNext(ctx, batchID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	logger := w.logger.With().Str("job_id", job.ID).Str("batch_id", job.BatchID).Str("keyword_id", job.KeywordID).Logger()

	opts := domain.DefaultRunOptions()
	if batch, err := w.jobs.GetBatch(ctx, job.BatchID); err == nil {
		opts = batch.Options
	} else {
		logger.Warn().Err(err).Msg("batch options unavailable, using defaults")
	}

	w.report(ctx, reporter, progress.EventJobStarted, progress.JobEvent{
		JobID:     job.ID,
		KeywordID: job.KeywordID,
		Keyword:   job.Keyword,
		Status:    domain.JobStatusRunning,
		Timestamp: w.now(),
	})

	// A claimed job runs to completion even if the caller goes away; the
	// pipeline's own timeouts bound it.
	detached := context.WithoutCancel(ctx)
	res := w.runner.Run(detached, job.KeywordID, opts)
	outcome := outcomeOf(res)

	fctx, cancel := context.WithTimeout(detached, 10*time.Second)
	defer cancel()
	batch, err := w.jobs.Finish(fctx, job.ID, outcome)
	if err != nil {
		logger.Error().Err(err).Msg("failed to record job outcome")
		return nil, fmt.Errorf("finish job %s: %w", job.ID, err)
	}

	job.QualityScore = outcome.QualityScore
	job.BlogPostID = outcome.BlogPostID
	job.ErrorMessage = outcome.ErrorMessage
	ev := progress.JobEvent{
		JobID:           job.ID,
		KeywordID:       job.KeywordID,
		Keyword:         job.Keyword,
		BlogPostID:      outcome.BlogPostID,
		Title:           res.Title,
		QualityScore:    outcome.QualityScore,
		ImagesGenerated: res.ImagesGenerated,
		Cost:            res.TotalCost,
		ErrorMessage:    outcome.ErrorMessage,
		ErrorCategory:   res.ErrorCategory,
		ImageErrors:     res.Errors,
		Timestamp:       w.now(),
	}
	if outcome.Succeeded {
		job.Status = domain.JobStatusCompleted
		ev.Status = domain.JobStatusCompleted
		w.report(ctx, reporter, progress.EventJobCompleted, ev)
	} else {
		job.Status = domain.JobStatusFailed
		ev.Status = domain.JobStatusFailed
		w.report(ctx, reporter, progress.EventJobFailed, ev)
	}
	return &JobResult{Job: *job, Result: res, Batch: batch}, nil
}

// Snapshot returns the batch and its jobs.
func (w *Worker) Snapshot(ctx context.Context, batchID string) (*Snapshot, error) {
	batch, err := w.jobs.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	jobs, err := w.jobs.ListJobs(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Batch: batch, Jobs: jobs}, nil
}

// Run processes jobs from every batch until ctx is done, sleeping for poll when idle.
func (w *Worker) Run(ctx context.Context, poll time.Duration, reporter progress.Reporter) error {
	if poll <= 0 {
		poll = 2 * time.Second
	}
	w.logger.Info().Dur("poll", poll).Msg("worker started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := w.ProcessNextJob(ctx, "", reporter)
		if err != nil {
			w.logger.Error().Err(err).Msg("failed to process job")
		}
		if res != nil && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
}

func (w *Worker) report(ctx context.Context, reporter progress.Reporter, typ progress.EventType, data any) {
	if err := reporter.Report(ctx, progress.Event{Type: typ, Data: data}); err != nil {
		w.logger.Debug().Err(err).Str("event", string(typ)).Msg("progress event dropped")
	}
}

func outcomeOf(res *pipeline.Result) domain.JobOutcome {
	if res == nil {
		msg := "pipeline returned no result"
		return domain.JobOutcome{ErrorMessage: &msg}
	}
	if res.Success {
		id := res.BlogPostID
		return domain.JobOutcome{Succeeded: true, QualityScore: res.QualityScore, BlogPostID: &id}
	}
	msg := res.Error
	if msg == "" {
		msg = string(res.ErrorCategory)
	}
	return domain.JobOutcome{ErrorMessage: &msg, QualityScore: res.QualityScore}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidationError(err.Error())
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return domain.NewValidationError(problems...)
}
