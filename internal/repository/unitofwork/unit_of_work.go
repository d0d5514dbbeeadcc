package unitofwork

import (
	"context"

	"companion-game-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	ConversationRepository() contract.ConversationRepository
	ReadyPromptRepository() contract.ReadyPromptRepository
	UserFactRepository() contract.UserFactRepository
	PersonaStateRepository() contract.PersonaStateRepository
	EmotionalStateRepository() contract.EmotionalStateRepository
	GameStateRepository() contract.GameStateRepository
	ConflictRepository() contract.ConflictRepository
	TouchpointRepository() contract.TouchpointRepository
	ConversationSummaryRepository() contract.ConversationSummaryRepository
}
