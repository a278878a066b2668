// Package progress defines batch progress events and the sinks that carry them.
package progress

import (
	"context"
	"time"

	"carekorea/internal/domain"
)

// EventType names a progress event on the wire.
type EventType string

const (
	EventConnected      EventType = "connected"
	EventWorkerStarted  EventType = "worker_started"
	EventProgress       EventType = "progress"
	EventJobStarted     EventType = "job_started"
	EventJobCompleted   EventType = "job_completed"
	EventJobFailed      EventType = "job_failed"
	EventBatchCompleted EventType = "batch_completed"
	EventError          EventType = "error"
	EventDone           EventType = "done"
)

// Event is one message on a progress stream.
type Event struct {
	Type EventType
	Data any
}

// Reporter receives progress events. Implementations must be safe to call from one goroutine at a time.
type Reporter interface {
	Report(ctx context.Context, ev Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Report(context.Context, Event) error { return nil }

type Connected struct {
	BatchID   string    `json:"batchId"`
	Timestamp time.Time `json:"timestamp"`
}

type Progress struct {
	Total      int  `json:"total"`
	Completed  int  `json:"completed"`
	Failed     int  `json:"failed"`
	IsComplete bool `json:"isComplete"`
}

type WorkerStarted struct {
	BatchID   string    `json:"batchId"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// JobEvent is the payload of job_started, job_completed and job_failed.
type JobEvent struct {
	JobID           string                `json:"jobId"`
	KeywordID       string                `json:"keywordId"`
	Keyword         string                `json:"keyword"`
	Status          domain.JobStatus      `json:"status"`
	BlogPostID      *string               `json:"blogPostId,omitempty"`
	Title           string                `json:"title,omitempty"`
	QualityScore    *float64              `json:"qualityScore,omitempty"`
	ImagesGenerated int                   `json:"imagesGenerated,omitempty"`
	Cost            float64               `json:"cost,omitempty"`
	ErrorMessage    *string               `json:"errorMessage,omitempty"`
	ErrorCategory   domain.ErrorCategory  `json:"errorCategory,omitempty"`
	ImageErrors     []domain.ImageFailure `json:"imageErrors,omitempty"`
	Timestamp       time.Time             `json:"timestamp"`
}

// JobSummary is one row of batch_completed.
type JobSummary struct {
	ID           string           `json:"id"`
	KeywordID    string           `json:"keywordId"`
	Keyword      string           `json:"keyword"`
	Status       domain.JobStatus `json:"status"`
	QualityScore *float64         `json:"qualityScore"`
	BlogPostID   *string          `json:"blogPostId"`
	ErrorMessage *string          `json:"errorMessage"`
}

type BatchCompleted struct {
	BatchID   string             `json:"batchId"`
	Status    domain.BatchStatus `json:"status"`
	Total     int                `json:"total"`
	Completed int                `json:"completed"`
	Failed    int                `json:"failed"`
	Jobs      []JobSummary       `json:"jobs"`
}

// Message is the payload of error and done.
type Message struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ProgressOf snapshots the counters of b.
func ProgressOf(b *domain.Batch) Progress {
	return Progress{Total: b.Total, Completed: b.Completed, Failed: b.Failed, IsComplete: b.IsComplete()}
}

// BatchCompletedOf builds the final tally of a batch.
func BatchCompletedOf(b *domain.Batch, jobs []domain.Job) BatchCompleted {
	out := BatchCompleted{
		BatchID:   b.ID,
		Status:    b.Status,
		Total:     b.Total,
		Completed: b.Completed,
		Failed:    b.Failed,
		Jobs:      make([]JobSummary, 0, len(jobs)),
	}
	for _, j := range jobs {
		out.Jobs = append(out.Jobs, JobSummary{
			ID:           j.ID,
			KeywordID:    j.KeywordID,
			Keyword:      j.Keyword,
			Status:       j.Status,
			QualityScore: j.QualityScore,
			BlogPostID:   j.BlogPostID,
			ErrorMessage: j.ErrorMessage,
		})
	}
	return out
}
