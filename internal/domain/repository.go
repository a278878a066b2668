package domain

import (
	"context"
	"time"
)

// KeywordRepository defines access methods for keywords.
type KeywordRepository interface {
	Get(ctx context.Context, id string) (*Keyword, error)
	// BeginGeneration moves the keyword to generating unless a run already holds it,
	// in which case ErrAlreadyInProgress is returned.
	BeginGeneration(ctx context.Context, id string) (*Keyword, error)
	MarkGenerated(ctx context.Context, id, blogPostID string, status KeywordStatus) error
	// Rollback releases a generating keyword after a failure and returns the status it landed in.
	Rollback(ctx context.Context, id, errMsg string, maxFailures int) (KeywordStatus, error)
	SetStatus(ctx context.Context, id string, status KeywordStatus) (*Keyword, error)
	// ListPending returns pending keywords that have no queued or running job.
	ListPending(ctx context.Context, limit int) ([]Keyword, error)
	ResetStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// PostRepository persists generated posts.
type PostRepository interface {
	Insert(ctx context.Context, post *Post) (*Post, error)
	FindBySlug(ctx context.Context, slug string) (*Post, error)
	// Delete removes a post that was never linked to its keyword.
	Delete(ctx context.Context, id string) error
}

// PersonaRepository looks up author personas.
type PersonaRepository interface {
	FindForLocale(ctx context.Context, locale Locale, category string) (*Persona, error)
	IncrementUsage(ctx context.Context, id string) error
}

// JobRepository defines persistence for batches and their jobs.
type JobRepository interface {
	CreateBatch(ctx context.Context, keywordIDs []string, priority int, opts RunOptions) (*Batch, error)
	// ClaimNext atomically moves the next queued job to running. It returns
	// ErrNotFound when no queued job remains. An empty batchID claims across batches.
	ClaimNext(ctx context.Context, batchID string) (*Job, error)
	Finish(ctx context.Context, jobID string, outcome JobOutcome) (*Batch, error)
	// FailStale marks jobs running for longer than olderThan as failed and
	// counts them against their batches. It returns how many jobs it failed.
	FailStale(ctx context.Context, olderThan time.Duration) (int64, error)
	GetBatch(ctx context.Context, id string) (*Batch, error)
	ListJobs(ctx context.Context, batchID string) ([]Job, error)
}

// Snippet is prior content returned by the retrieval store.
type Snippet struct {
	PostID           string
	Title            string
	Text             string
	PerformanceScore float64
	Distance         float64
}

// SnippetRepository searches stored content by embedding similarity.
type SnippetRepository interface {
	Nearest(ctx context.Context, embedding []float32, locale Locale, category string, limit int) ([]Snippet, error)
}
