package queue

import (
	"context"
	"fmt"
	"time"

	"carekorea/internal/progress"
)

// StreamLimits bound one progress stream.
type StreamLimits struct {
	// MaxIterations caps the worker-driving loop in case claiming is broken.
	MaxIterations int
	// PollInterval and MaxDuration drive the read-only viewer.
	PollInterval time.Duration
	MaxDuration  time.Duration
}

// DriveBatch processes the jobs of batchID in this goroutine while streaming
// events to reporter. Closing the stream stops claiming new jobs but never
// interrupts the bookkeeping of a job already running.
func (w *Worker) DriveBatch(ctx context.Context, batchID string, reporter progress.Reporter, limits StreamLimits) error {
	batch, err := w.jobs.GetBatch(ctx, batchID)
	if err != nil {
		return err
	}
	if limits.MaxIterations <= 0 {
		limits.MaxIterations = 200
	}
	w.report(ctx, reporter, progress.EventConnected, progress.Connected{BatchID: batchID, Timestamp: w.now()})
	w.report(ctx, reporter, progress.EventProgress, progress.ProgressOf(batch))
	w.report(ctx, reporter, progress.EventWorkerStarted, progress.WorkerStarted{BatchID: batchID, Total: batch.Total, Timestamp: w.now()})

	capped := true
	for i := 0; i < limits.MaxIterations; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if batch.Status.Terminal() {
			capped = false
			break
		}
		res, err := w.ProcessNextJob(ctx, batchID, reporter)
		if err != nil {
			w.report(ctx, reporter, progress.EventError, progress.Message{Message: err.Error(), Timestamp: w.now()})
			capped = false
			break
		}
		if res == nil {
			capped = false
			break
		}
		batch = res.Batch
		w.report(ctx, reporter, progress.EventProgress, progress.ProgressOf(batch))
	}
	if capped && !batch.Status.Terminal() {
		w.report(ctx, reporter, progress.EventError, progress.Message{
			Message:   fmt.Sprintf("stopped after %d iterations", limits.MaxIterations),
			Timestamp: w.now(),
		})
	}
	return w.finishStream(ctx, batchID, reporter)
}

// WatchBatch streams progress of batchID without processing jobs, polling until
// the batch is terminal or MaxDuration elapses.
func (w *Worker) WatchBatch(ctx context.Context, batchID string, reporter progress.Reporter, limits StreamLimits) error {
	batch, err := w.jobs.GetBatch(ctx, batchID)
	if err != nil {
		return err
	}
	if limits.PollInterval <= 0 {
		limits.PollInterval = 2 * time.Second
	}
	if limits.MaxDuration <= 0 {
		limits.MaxDuration = 10 * time.Minute
	}
	w.report(ctx, reporter, progress.EventConnected, progress.Connected{BatchID: batchID, Timestamp: w.now()})
	w.report(ctx, reporter, progress.EventProgress, progress.ProgressOf(batch))

	deadline := time.NewTimer(limits.MaxDuration)
	defer deadline.Stop()
	ticker := time.NewTicker(limits.PollInterval)
	defer ticker.Stop()

	last := progress.ProgressOf(batch)
	for !batch.Status.Terminal() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return w.finishStream(ctx, batchID, reporter)
		case <-ticker.C:
		}
		next, err := w.jobs.GetBatch(ctx, batchID)
		if err != nil {
			w.report(ctx, reporter, progress.EventError, progress.Message{Message: err.Error(), Timestamp: w.now()})
			continue
		}
		batch = next
		if p := progress.ProgressOf(batch); p != last {
			last = p
			w.report(ctx, reporter, progress.EventProgress, p)
		}
	}
	return w.finishStream(ctx, batchID, reporter)
}

// finishStream emits batch_completed when the batch is terminal, then done.
func (w *Worker) finishStream(ctx context.Context, batchID string, reporter progress.Reporter) error {
	snap, err := w.Snapshot(ctx, batchID)
	if err != nil {
		w.report(ctx, reporter, progress.EventError, progress.Message{Message: err.Error(), Timestamp: w.now()})
	} else if snap.Batch.Status.Terminal() {
		w.report(ctx, reporter, progress.EventBatchCompleted, progress.BatchCompletedOf(snap.Batch, snap.Jobs))
	}
	msg := "stream closed"
	if err == nil && snap.Batch.Status.Terminal() {
		msg = fmt.Sprintf("batch %s", snap.Batch.Status)
	}
	w.report(ctx, reporter, progress.EventDone, progress.Message{Message: msg, Timestamp: w.now()})
	return nil
}
