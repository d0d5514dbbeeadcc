package specification

import (
	"time"

	"gorm.io/gorm"
)

// ByJobName filters job executions by name
type ByJobName struct {
	Name string
}

func (s ByJobName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("job_name = ?", s.Name)
}

// ByJobStatus filters job executions by status
type ByJobStatus struct {
	Status string
}

func (s ByJobStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// CompletedSince matches rows whose completed_at falls inside [t, now].
// The idempotency window keys on completed_at, never started_at: a job that
// started but never finished must not suppress a retry.
type CompletedSince struct {
	Since time.Time
}

func (s CompletedSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("completed_at IS NOT NULL AND completed_at >= ?", s.Since)
}
