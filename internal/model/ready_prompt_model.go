package model

import (
	"time"

	"github.com/google/uuid"
)

// ReadyPrompt keeps every generated prompt for audit; at most one row per
// (user_id, platform) has is_current = true.
type ReadyPrompt struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId          uuid.UUID `gorm:"type:uuid;not null;index:idx_ready_prompts_user_platform"`
	Platform        string    `gorm:"type:varchar(10);not null;index:idx_ready_prompts_user_platform"`
	PromptText      string    `gorm:"type:text;not null"`
	TokenCount      int       `gorm:"not null"`
	PipelineVersion string    `gorm:"type:varchar(20);not null"`
	IsCurrent       bool      `gorm:"not null;default:false;index"`
	GeneratedAt     time.Time `gorm:"not null"`
}

func (ReadyPrompt) TableName() string {
	return "ready_prompts"
}
