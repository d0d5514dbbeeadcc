package contract

import (
	"context"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	Update(ctx context.Context, conversation *entity.Conversation) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conversation, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// MarkProcessing moves the conversation to processing and increments its
	// attempt counter in one statement.
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	// ResetToPending moves a stuck conversation back to pending and
	// increments its attempt counter. The only backwards status transition.
	ResetToPending(ctx context.Context, id uuid.UUID) error
}
