// Package scheduler periodically requeues keywords left pending.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"carekorea/internal/domain"
	"carekorea/internal/queue"
)

// Submitter creates batches.
type Submitter interface {
	SubmitBatch(ctx context.Context, req queue.SubmitRequest) (*domain.Batch, error)
}

// Options configures a Resubmitter.
type Options struct {
	Keywords domain.KeywordRepository
	// Jobs, when set, lets a tick fail jobs abandoned in running so their
	// keywords become eligible again.
	Jobs  domain.JobRepository
	Queue Submitter
	// Limit caps how many pending keywords one tick submits.
	Limit int
	// StaleAfter releases keywords stuck in generating, and jobs stuck in
	// running, for longer than this; 0 skips the reset.
	StaleAfter time.Duration
	RunOptions domain.RunOptions
	Logger     zerolog.Logger
}

// Resubmitter submits pending keywords as a new batch on a cron schedule.
type Resubmitter struct {
	opts Options
	cron *cron.Cron

	mu      sync.Mutex
	running bool
}

func NewResubmitter(opts Options) (*Resubmitter, error) {
	if opts.Keywords == nil || opts.Queue == nil {
		return nil, errors.New("scheduler: keywords and queue are required")
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	return &Resubmitter{
		opts: opts,
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}, nil
}

// Tick resets stale keywords and submits up to Limit pending ones. It returns a
// nil batch when nothing is pending.
func (r *Resubmitter) Tick(ctx context.Context) (*domain.Batch, error) {
	logger := r.opts.Logger
	if r.opts.StaleAfter > 0 && r.opts.Jobs != nil {
		n, err := r.opts.Jobs.FailStale(ctx, r.opts.StaleAfter)
		if err != nil {
			return nil, fmt.Errorf("fail stale jobs: %w", err)
		}
		if n > 0 {
			logger.Warn().Int64("count", n).Dur("older_than", r.opts.StaleAfter).Msg("failed abandoned running jobs")
		}
	}
	if r.opts.StaleAfter > 0 {
		n, err := r.opts.Keywords.ResetStale(ctx, r.opts.StaleAfter)
		if err != nil {
			return nil, fmt.Errorf("reset stale keywords: %w", err)
		}
		if n > 0 {
			logger.Warn().Int64("count", n).Dur("older_than", r.opts.StaleAfter).Msg("released stale generating keywords")
		}
	}
	pending, err := r.opts.Keywords.ListPending(ctx, r.opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list pending keywords: %w", err)
	}
	if len(pending) == 0 {
		logger.Debug().Msg("no pending keywords")
		return nil, nil
	}
	ids := make([]string, 0, len(pending))
	for _, kw := range pending {
		ids = append(ids, kw.ID)
	}
	batch, err := r.opts.Queue.SubmitBatch(ctx, queue.SubmitRequest{KeywordIDs: ids, Options: r.opts.RunOptions})
	if err != nil {
		return nil, fmt.Errorf("submit pending keywords: %w", err)
	}
	logger.Info().Str("batch_id", batch.ID).Int("total", batch.Total).Msg("pending keywords resubmitted")
	return batch, nil
}

// Start schedules Tick with a standard five-field cron expression.
func (r *Resubmitter) Start(ctx context.Context, spec string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return errors.New("scheduler: already running")
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q: %w", spec, err)
	}
	if _, err := r.cron.AddFunc(spec, func() {
		tctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if _, err := r.Tick(tctx); err != nil {
			r.opts.Logger.Error().Err(err).Msg("resubmit tick failed")
		}
	}); err != nil {
		return fmt.Errorf("scheduler: add job: %w", err)
	}
	r.cron.Start()
	r.running = true
	r.opts.Logger.Info().Str("schedule", spec).Msg("resubmit scheduler started")
	return nil
}

// Stop halts scheduling and waits for a running tick.
func (r *Resubmitter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	<-r.cron.Stop().Done()
	r.running = false
}
