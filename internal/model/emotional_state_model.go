package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type EmotionalState struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	Valence         float64        `gorm:"not null;default:0"`
	Arousal         float64        `gorm:"not null;default:0"`
	DominantEmotion string         `gorm:"type:varchar(30);not null;default:'neutral'"`
	Psyche          datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
}

func (EmotionalState) TableName() string {
	return "emotional_states"
}
