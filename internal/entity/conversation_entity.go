package entity

import (
	"time"

	"github.com/google/uuid"
)

type Platform string

const (
	PlatformText  Platform = "text"
	PlatformVoice Platform = "voice"
)

type ConversationStatus string

const (
	ConversationStatusActive     ConversationStatus = "active"
	ConversationStatusPending    ConversationStatus = "pending"
	ConversationStatusProcessing ConversationStatus = "processing"
	ConversationStatusProcessed  ConversationStatus = "processed"
	ConversationStatusFailed     ConversationStatus = "failed"
)

type MessageRole string

const (
	MessageRoleUser    MessageRole = "user"
	MessageRolePersona MessageRole = "persona"
)

type ConversationMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
	SentAt  time.Time   `json:"sent_at"`
}

type Conversation struct {
	Id                 uuid.UUID
	UserId             uuid.UUID
	Platform           Platform
	Messages           []ConversationMessage
	Status             ConversationStatus
	ProcessingAttempts int
	ProcessedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          *time.Time
}
