package contract

import (
	"context"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/repository/specification"
)

type ConversationSummaryRepository interface {
	// Upsert replaces any existing summary for the conversation.
	Upsert(ctx context.Context, summary *entity.ConversationSummary) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationSummary, error)
}
