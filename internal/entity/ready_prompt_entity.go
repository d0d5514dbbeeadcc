package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReadyPrompt struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	Platform        Platform
	PromptText      string
	TokenCount      int
	PipelineVersion string
	IsCurrent       bool
	GeneratedAt     time.Time
}
