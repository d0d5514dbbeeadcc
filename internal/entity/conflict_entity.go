package entity

import (
	"time"

	"github.com/google/uuid"
)

type ConflictStatus string

const (
	ConflictStatusOpen     ConflictStatus = "open"
	ConflictStatusResolved ConflictStatus = "resolved"
)

// Conflict records a contradiction between a newly extracted fact and a
// previously stored one.
type Conflict struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	ConversationId uuid.UUID
	NewFactId      uuid.UUID
	StoredFactId   uuid.UUID
	Description    string
	Status         ConflictStatus
	DetectedAt     time.Time
}
