package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"carekorea/internal/domain"
	"carekorea/internal/infra"
	"carekorea/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository backed by PostgreSQL.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// CreateBatch inserts the batch and one queued job per keyword in a single statement.
func (r *JobRepositoryPG) CreateBatch(ctx context.Context, keywordIDs []string, priority int, opts domain.RunOptions) (*domain.Batch, error) {
	if len(keywordIDs) == 0 {
		return nil, domain.NewValidationError("at least one keyword id is required")
	}
	rawOpts, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("encode batch options: %w", err)
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertBatchWithJobs, uuid.NewString(), keywordIDs, priority, rawOpts)
	batch, err := scanBatch(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, fmt.Errorf("create batch: one or more keywords: %w", domain.ErrNotFound)
		}
		return nil, wrapErr("create batch", err)
	}
	return batch, nil
}

// ClaimNext atomically claims the next queued job, optionally within one batch.
func (r *JobRepositoryPG) ClaimNext(ctx context.Context, batchID string) (*domain.Job, error) {
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QClaimNextJob, nullable(batchID)))
	if err != nil {
		return nil, wrapErr("claim job", err)
	}
	return job, nil
}

// Finish records the outcome of a running job and returns the updated batch.
func (r *JobRepositoryPG) Finish(ctx context.Context, jobID string, outcome domain.JobOutcome) (*domain.Batch, error) {
	var errMsg *string
	if outcome.ErrorMessage != nil {
		msg := domain.TruncateDiagnostic(*outcome.ErrorMessage)
		errMsg = &msg
	}
	row := r.sql.QueryRow(ctx, sqlinline.QFinishJob,
		jobID,
		outcome.Succeeded,
		outcome.QualityScore,
		outcome.BlogPostID,
		errMsg,
	)
	batch, err := scanBatch(row)
	if err != nil {
		return nil, wrapErr("finish job", err)
	}
	return batch, nil
}

// FailStale fails jobs abandoned in running and returns how many it touched.
func (r *JobRepositoryPG) FailStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	var n int64
	if err := r.sql.QueryRow(ctx, sqlinline.QFailStaleJobs, olderThan.Seconds()).Scan(&n); err != nil {
		return 0, wrapErr("fail stale jobs", err)
	}
	return n, nil
}

// GetBatch fetches a batch by id.
func (r *JobRepositoryPG) GetBatch(ctx context.Context, id string) (*domain.Batch, error) {
	batch, err := scanBatch(r.sql.QueryRow(ctx, sqlinline.QSelectBatch, id))
	if err != nil {
		return nil, wrapErr("get batch", err)
	}
	return batch, nil
}

// ListJobs returns the jobs of a batch in claim order.
func (r *JobRepositoryPG) ListJobs(ctx context.Context, batchID string) ([]domain.Job, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectBatchJobs, batchID)
	if err != nil {
		return nil, wrapErr("list jobs", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, wrapErr("scan job", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list jobs", err)
	}
	return jobs, nil
}

func scanBatch(row pgx.Row) (*domain.Batch, error) {
	var (
		b      domain.Batch
		status string
		opts   []byte
	)
	if err := row.Scan(&b.ID, &b.Total, &b.Completed, &b.Failed, &status, &opts, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Status = domain.BatchStatus(status)
	b.Options = domain.DefaultRunOptions()
	if len(opts) > 0 {
		if err := json.Unmarshal(opts, &b.Options); err != nil {
			return nil, fmt.Errorf("decode batch options: %w", err)
		}
	}
	return &b, nil
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		job    domain.Job
		status string
	)
	if err := row.Scan(
		&job.ID,
		&job.BatchID,
		&job.KeywordID,
		&job.Keyword,
		&job.Priority,
		&status,
		&job.QualityScore,
		&job.BlogPostID,
		&job.ErrorMessage,
		&job.StartedAt,
		&job.FinishedAt,
		&job.CreatedAt,
	); err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
