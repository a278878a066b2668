package domain

import "time"

// JobStatus enumerates generation job lifecycle states.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// BatchStatus enumerates batch lifecycle states. Every state but running is terminal.
type BatchStatus string

const (
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusPartial   BatchStatus = "partial"
	BatchStatusFailed    BatchStatus = "failed"
)

// Terminal reports whether s is never revisited.
func (s BatchStatus) Terminal() bool {
	return s != BatchStatusRunning
}

// BatchStatusFor derives the batch status from its counters.
func BatchStatusFor(total, completed, failed int) BatchStatus {
	switch {
	case completed+failed < total:
		return BatchStatusRunning
	case failed == 0:
		return BatchStatusCompleted
	case completed == 0:
		return BatchStatusFailed
	default:
		return BatchStatusPartial
	}
}

// RunOptions tunes a single pipeline run.
type RunOptions struct {
	IncludeRetrievalContext bool `json:"include_retrieval_context"`
	IncludeImages           bool `json:"include_images"`
	ImageCount              int  `json:"image_count" validate:"min=0,max=8"`
	AutoPublish             bool `json:"auto_publish"`
}

// DefaultRunOptions is used when a caller supplies no options.
func DefaultRunOptions() RunOptions {
	return RunOptions{IncludeRetrievalContext: true, IncludeImages: true, ImageCount: 3}
}

// Batch groups jobs submitted together.
type Batch struct {
	ID        string
	Total     int
	Completed int
	Failed    int
	Status    BatchStatus
	Options   RunOptions
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsComplete reports whether every job has reached a final state.
func (b *Batch) IsComplete() bool {
	return b.Completed+b.Failed >= b.Total
}

// Job is one keyword queued for generation inside a batch.
type Job struct {
	ID           string
	BatchID      string
	KeywordID    string
	Keyword      string
	Priority     int
	Status       JobStatus
	QualityScore *float64
	BlogPostID   *string
	ErrorMessage *string
	StartedAt    *time.Time
	FinishedAt   *time.Time
	CreatedAt    time.Time
}

// JobOutcome is recorded when a job leaves the running state.
type JobOutcome struct {
	Succeeded    bool
	QualityScore *float64
	BlogPostID   *string
	ErrorMessage *string
}
