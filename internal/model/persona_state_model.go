package model

import (
	"time"

	"github.com/google/uuid"
)

type PersonaState struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CurrentActivity string    `gorm:"type:text;not null"`
	Energy          float64   `gorm:"not null;default:1"`
	MoodTrajectory  string    `gorm:"type:varchar(20);not null;default:'steady'"`
	LastTickAt      time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (PersonaState) TableName() string {
	return "persona_states"
}
