package entity

import (
	"time"

	"github.com/google/uuid"
)

// PersonaState is the simulated life of the companion persona for one user.
// The life_sim stage advances it based on elapsed wall-clock time.
type PersonaState struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	CurrentActivity string
	Energy          float64
	MoodTrajectory  string
	LastTickAt      time.Time
	UpdatedAt       *time.Time
}
