package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// JobExecution rows are append-only: created at job start, finalized exactly
// once at job end, never deleted. completed_at carries the index because the
// idempotency window queries key on it.
type JobExecution struct {
	Id      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	JobName string    `gorm:"type:varchar(50);not null;index"`
	// UserId is set once the run has resolved its subject; global jobs
	// (recovery, batch sweeps) leave it null. Denormalized so the per-user
	// admin history does not have to dig through the result JSON.
	UserId      *uuid.UUID `gorm:"type:uuid;index"`
	Status      string     `gorm:"type:varchar(20);not null;default:'running'"`
	StartedAt   time.Time  `gorm:"not null;index"`
	CompletedAt *time.Time `gorm:"index"`
	DurationMS  *int64
	Result      datatypes.JSON `gorm:"type:jsonb"`
}

func (JobExecution) TableName() string {
	return "job_executions"
}
