package model

import (
	"time"

	"github.com/google/uuid"
)

type GameState struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Score     int       `gorm:"not null;default:0"`
	Affinity  float64   `gorm:"not null;default:0"`
	Level     int       `gorm:"not null;default:1"`
	LastDelta int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (GameState) TableName() string {
	return "game_states"
}
