package mapper

import (
	"encoding/json"
	"time"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/model"

	"gorm.io/datatypes"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

func (m *ConversationMapper) ToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}

	var messages []entity.ConversationMessage
	if len(c.Messages) > 0 {
		// A malformed messages column yields an empty list rather than an
		// error: the pipeline must still be able to process the row.
		_ = json.Unmarshal(c.Messages, &messages)
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Conversation{
		Id:                 c.Id,
		UserId:             c.UserId,
		Platform:           entity.Platform(c.Platform),
		Messages:           messages,
		Status:             entity.ConversationStatus(c.Status),
		ProcessingAttempts: c.ProcessingAttempts,
		ProcessedAt:        c.ProcessedAt,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          updatedAt,
	}
}

func (m *ConversationMapper) ToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}

	var messages datatypes.JSON
	if c.Messages != nil {
		raw, _ := json.Marshal(c.Messages)
		messages = datatypes.JSON(raw)
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Conversation{
		Id:                 c.Id,
		UserId:             c.UserId,
		Platform:           string(c.Platform),
		Messages:           messages,
		Status:             string(c.Status),
		ProcessingAttempts: c.ProcessingAttempts,
		ProcessedAt:        c.ProcessedAt,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          updatedAt,
	}
}

func (m *ConversationMapper) ToEntities(models []*model.Conversation) []*entity.Conversation {
	entities := make([]*entity.Conversation, len(models))
	for i, c := range models {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
