package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Conversation struct {
	Id                 uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId             uuid.UUID      `gorm:"type:uuid;not null;index"`
	Platform           string         `gorm:"type:varchar(10);not null"`
	Messages           datatypes.JSON `gorm:"type:jsonb"`
	Status             string         `gorm:"type:varchar(20);not null;default:'active';index"`
	ProcessingAttempts int            `gorm:"not null;default:0"`
	ProcessedAt        *time.Time
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime;index"`
}

func (Conversation) TableName() string {
	return "conversations"
}
