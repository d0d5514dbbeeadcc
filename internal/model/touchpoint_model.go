package model

import (
	"time"

	"github.com/google/uuid"
)

type Touchpoint struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId         uuid.UUID `gorm:"type:uuid;not null;index"`
	ConversationId uuid.UUID `gorm:"type:uuid;not null"`
	Topic          string    `gorm:"type:text;not null"`
	Platform       string    `gorm:"type:varchar(10);not null"`
	ScheduledFor   time.Time `gorm:"not null;index"`
	Status         string    `gorm:"type:varchar(20);not null;default:'scheduled'"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (Touchpoint) TableName() string {
	return "touchpoints"
}
