package dto

import (
	"time"

	"github.com/google/uuid"
)

type TriggerPipelineRequest struct {
	// Empty means the user's most recent conversation.
	ConversationId string `json:"conversation_id" validate:"omitempty,uuid"`
}

type TriggerPipelineResponse struct {
	JobExecutionId uuid.UUID `json:"job_execution_id"`
	Status         string    `json:"status"`
	DurationMS     int64     `json:"duration_ms"`
	FailedStages   []string  `json:"failed_stages,omitempty"`
	AlreadyRunning bool      `json:"already_running,omitempty"`
}

type TriggerPsycheBatchRequest struct {
	// Empty user list means every active user.
	UserIds []string `json:"user_ids" validate:"omitempty,dive,uuid"`
}

type TriggerPsycheBatchResponse struct {
	JobExecutionId uuid.UUID `json:"job_execution_id"`
	Status         string    `json:"status"`
	ProcessedUsers int       `json:"processed_users"`
}

type UserPipelineHistoryQuery struct {
	Page     int `query:"page" validate:"omitempty,min=1"`
	PageSize int `query:"page_size" validate:"omitempty,min=1,max=100"`
}

type UserPipelineHistoryResponse struct {
	Items    []*JobExecutionDTO `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

type PipelineHistoryQuery struct {
	JobName string `query:"job_name" validate:"omitempty,oneof=post_processing psyche_batch recovery decay delivery"`
	Status  string `query:"status" validate:"omitempty,oneof=running completed failed"`
	Limit   int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

type JobExecutionDTO struct {
	Id          uuid.UUID              `json:"id"`
	JobName     string                 `json:"job_name"`
	Status      string                 `json:"status"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	DurationMS  *int64                 `json:"duration_ms,omitempty"`
	Summary     string                 `json:"summary"`
	Result      map[string]interface{} `json:"result,omitempty"`
}
