package entity

import (
	"time"

	"github.com/google/uuid"
)

type GameState struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Score     int
	Affinity  float64
	Level     int
	LastDelta int
	UpdatedAt time.Time
}
