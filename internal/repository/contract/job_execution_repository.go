package contract

import (
	"context"
	"time"

	"companion-game-be/internal/entity"

	"github.com/google/uuid"
)

// JobExecutionRepository is the durable ledger of job attempts. Rows are
// created at job start and finalized at most once; nothing deletes them.
type JobExecutionRepository interface {
	// StartExecution inserts a running row with started_at = now.
	StartExecution(ctx context.Context, name entity.JobName) (*entity.JobExecution, error)
	// CompleteExecution finalizes the row as completed, setting completed_at
	// and duration_ms. Returns ErrJobExecutionNotFound on an unknown id.
	CompleteExecution(ctx context.Context, id uuid.UUID, result *entity.JobResult) (*entity.JobExecution, error)
	// FailExecution is symmetric to CompleteExecution with status failed.
	FailExecution(ctx context.Context, id uuid.UUID, result *entity.JobResult) (*entity.JobExecution, error)

	// AttachUser stamps the row with the run's subject once it is known.
	// Started rows carry no user until the orchestrator resolves one.
	AttachUser(ctx context.Context, id uuid.UUID, userId uuid.UUID) error

	GetLatestByJobName(ctx context.Context, name entity.JobName) (*entity.JobExecution, error)
	GetRecentExecutions(ctx context.Context, name *entity.JobName, status *entity.JobStatus, limit int) ([]*entity.JobExecution, error)
	// GetUserExecutions pages through one user's rows, newest first. The
	// second return is the total row count for that user.
	GetUserExecutions(ctx context.Context, userId uuid.UUID, page, pageSize int) ([]*entity.JobExecution, int64, error)

	// HasRecentExecution reports whether a job of this name completed inside
	// [now-window, now]. Running rows never count: keying on started_at would
	// wrongly suppress retries of jobs that started but never finished.
	HasRecentExecution(ctx context.Context, name entity.JobName, window time.Duration) (bool, error)

	// HasRunning reports whether any running row exists for the job name.
	// Used by the admin trigger for advisory caller-level dedup.
	HasRunning(ctx context.Context, name entity.JobName) (bool, error)
}
