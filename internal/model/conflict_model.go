package model

import (
	"time"

	"github.com/google/uuid"
)

type Conflict struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId         uuid.UUID `gorm:"type:uuid;not null;index"`
	ConversationId uuid.UUID `gorm:"type:uuid;not null;index"`
	NewFactId      uuid.UUID `gorm:"type:uuid;not null"`
	StoredFactId   uuid.UUID `gorm:"type:uuid;not null"`
	Description    string    `gorm:"type:text;not null"`
	Status         string    `gorm:"type:varchar(20);not null;default:'open'"`
	DetectedAt     time.Time `gorm:"not null"`
}

func (Conflict) TableName() string {
	return "conflicts"
}
