package entity

import (
	"time"

	"github.com/google/uuid"
)

type FactCategory string

const (
	FactCategoryBiography    FactCategory = "biography"
	FactCategoryPreference   FactCategory = "preference"
	FactCategoryRelationship FactCategory = "relationship"
	FactCategoryOpenThread   FactCategory = "open_thread"
	FactCategoryInnerThought FactCategory = "inner_thought"
)

type UserFact struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	ConversationId uuid.UUID
	Category       FactCategory
	Content        string
	ContentHash    string
	Embedding      []float32
	Confidence     float64
	CreatedAt      time.Time
}
