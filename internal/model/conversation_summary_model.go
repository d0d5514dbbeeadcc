package model

import (
	"time"

	"github.com/google/uuid"
)

type ConversationSummary struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId         uuid.UUID `gorm:"type:uuid;not null;index"`
	ConversationId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Summary        string    `gorm:"type:text;not null"`
	MessageCount   int       `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (ConversationSummary) TableName() string {
	return "conversation_summaries"
}
