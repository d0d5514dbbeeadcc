package entity

import (
	"time"

	"github.com/google/uuid"
)

// JobName is an open set: new job kinds may appear without a schema change,
// but all code in this repo switches over the known constants.
type JobName string

const (
	JobNamePostProcessing JobName = "post_processing"
	JobNamePsycheBatch    JobName = "psyche_batch"
	JobNameRecovery       JobName = "recovery"
	JobNameDecay          JobName = "decay"
	JobNameDelivery       JobName = "delivery"
)

type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobMetrics is the success half of a job result.
type JobMetrics struct {
	ConversationId *uuid.UUID       `json:"conversation_id,omitempty"`
	UserId         *uuid.UUID       `json:"user_id,omitempty"`
	StageDurations map[string]int64 `json:"stage_durations_ms,omitempty"`
	FailedStages   []string         `json:"failed_stages,omitempty"`
	RecoveredCount *int             `json:"recovered_count,omitempty"`
	ProcessedUsers *int             `json:"processed_users,omitempty"`
}

// JobError is the failure half of a job result.
type JobError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Stage   string `json:"stage,omitempty"`
}

// JobResult is a discriminated union: exactly one of Ok/Err is set.
type JobResult struct {
	Ok  *JobMetrics `json:"ok,omitempty"`
	Err *JobError   `json:"err,omitempty"`
}

type JobExecution struct {
	Id          uuid.UUID
	JobName     JobName
	UserId      *uuid.UUID
	Status      JobStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	DurationMS  *int64
	Result      *JobResult
}
