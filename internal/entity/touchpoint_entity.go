package entity

import (
	"time"

	"github.com/google/uuid"
)

type TouchpointStatus string

const (
	TouchpointStatusScheduled TouchpointStatus = "scheduled"
	TouchpointStatusDelivered TouchpointStatus = "delivered"
	TouchpointStatusCancelled TouchpointStatus = "cancelled"
)

// Touchpoint is a scheduled proactive contact derived from an open thread.
type Touchpoint struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	ConversationId uuid.UUID
	Topic          string
	Platform       Platform
	ScheduledFor   time.Time
	Status         TouchpointStatus
	CreatedAt      time.Time
}
