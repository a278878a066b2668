package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"carekorea/internal/domain"
)

// JobStore adapts Store to domain.JobRepository.
type JobStore struct{ *Store }

func (j JobStore) CreateBatch(ctx context.Context, keywordIDs []string, priority int, opts domain.RunOptions) (*domain.Batch, error) {
	if len(keywordIDs) == 0 {
		return nil, domain.NewValidationError("at least one keyword id is required")
	}
	s := j.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range keywordIDs {
		if _, ok := s.keywords[id]; !ok {
			return nil, fmt.Errorf("create batch: keyword %s: %w", id, domain.ErrNotFound)
		}
	}
	now := s.tick()
	batch := &domain.Batch{
		ID:        uuid.NewString(),
		Total:     len(keywordIDs),
		Status:    domain.BatchStatusRunning,
		Options:   opts,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.batches[batch.ID] = batch
	for _, id := range keywordIDs {
		kw := s.keywords[id]
		s.jobs = append(s.jobs, &domain.Job{
			ID:        uuid.NewString(),
			BatchID:   batch.ID,
			KeywordID: id,
			Keyword:   kw.Text,
			Priority:  priority + kw.Priority,
			Status:    domain.JobStatusQueued,
			CreatedAt: now,
		})
	}
	cp := *batch
	return &cp, nil
}

func (j JobStore) ClaimNext(ctx context.Context, batchID string) (*domain.Job, error) {
	s := j.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	var next *domain.Job
	for _, job := range s.ordered(batchID) {
		if job.Status == domain.JobStatusQueued {
			next = job
			break
		}
	}
	if next == nil {
		return nil, fmt.Errorf("claim job: %w", domain.ErrNotFound)
	}
	started := s.tick()
	next.Status = domain.JobStatusRunning
	next.StartedAt = &started
	cp := *next
	return &cp, nil
}

func (j JobStore) Finish(ctx context.Context, jobID string, outcome domain.JobOutcome) (*domain.Batch, error) {
	s := j.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	var job *domain.Job
	for _, candidate := range s.jobs {
		if candidate.ID == jobID && candidate.Status == domain.JobStatusRunning {
			job = candidate
			break
		}
	}
	if job == nil {
		return nil, fmt.Errorf("finish job %s: %w", jobID, domain.ErrNotFound)
	}
	batch := s.batches[job.BatchID]
	if batch == nil || batch.Status.Terminal() {
		return nil, fmt.Errorf("finish job %s: batch: %w", jobID, domain.ErrNotFound)
	}
	finished := s.tick()
	job.FinishedAt = &finished
	job.QualityScore = outcome.QualityScore
	job.BlogPostID = outcome.BlogPostID
	if outcome.ErrorMessage != nil {
		msg := domain.TruncateDiagnostic(*outcome.ErrorMessage)
		job.ErrorMessage = &msg
	}
	if outcome.Succeeded {
		job.Status = domain.JobStatusCompleted
		batch.Completed++
	} else {
		job.Status = domain.JobStatusFailed
		batch.Failed++
	}
	batch.Status = domain.BatchStatusFor(batch.Total, batch.Completed, batch.Failed)
	batch.UpdatedAt = finished
	cp := *batch
	return &cp, nil
}

func (j JobStore) FailStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	s := j.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-olderThan)
	var n int64
	for _, job := range s.jobs {
		if job.Status != domain.JobStatusRunning || job.StartedAt == nil || !job.StartedAt.Before(cutoff) {
			continue
		}
		finished := s.tick()
		msg := "generation abandoned: job was left running"
		job.Status = domain.JobStatusFailed
		job.ErrorMessage = &msg
		job.FinishedAt = &finished
		n++
		if batch := s.batches[job.BatchID]; batch != nil && !batch.Status.Terminal() {
			batch.Failed++
			batch.Status = domain.BatchStatusFor(batch.Total, batch.Completed, batch.Failed)
			batch.UpdatedAt = finished
		}
	}
	return n, nil
}

func (j JobStore) GetBatch(ctx context.Context, id string) (*domain.Batch, error) {
	s := j.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.batches[id]
	if !ok {
		return nil, fmt.Errorf("batch %s: %w", id, domain.ErrNotFound)
	}
	cp := *batch
	return &cp, nil
}

func (j JobStore) ListJobs(ctx context.Context, batchID string) ([]domain.Job, error) {
	s := j.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Job
	for _, job := range s.ordered(batchID) {
		out = append(out, *job)
	}
	return out, nil
}

// ordered returns jobs in claim order: priority desc, then insertion order.
func (s *Store) ordered(batchID string) []*domain.Job {
	var out []*domain.Job
	for _, job := range s.jobs {
		if batchID == "" || job.BatchID == batchID {
			out = append(out, job)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Priority > out[b].Priority })
	return out
}

var _ domain.JobRepository = JobStore{}
