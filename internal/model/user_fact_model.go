package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type UserFact struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_user_facts_user_hash"`
	ConversationId uuid.UUID       `gorm:"type:uuid;not null;index"`
	Category       string          `gorm:"type:varchar(30);not null"`
	Content        string          `gorm:"type:text;not null"`
	ContentHash    string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_facts_user_hash"`
	Embedding      pgvector.Vector `gorm:"type:vector(768)"`
	Confidence     float64         `gorm:"not null;default:1"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (UserFact) TableName() string {
	return "user_facts"
}
