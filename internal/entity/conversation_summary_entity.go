package entity

import (
	"time"

	"github.com/google/uuid"
)

type ConversationSummary struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	ConversationId uuid.UUID
	Summary        string
	MessageCount   int
	CreatedAt      time.Time
}
