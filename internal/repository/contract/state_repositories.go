package contract

import (
	"context"

	"companion-game-be/internal/entity"

	"github.com/google/uuid"
)

// Per-user singleton state rows. GetByUserId returns nil when the user has
// no row yet; Save upserts on user_id.

type PersonaStateRepository interface {
	GetByUserId(ctx context.Context, userId uuid.UUID) (*entity.PersonaState, error)
	Save(ctx context.Context, state *entity.PersonaState) error
}

type EmotionalStateRepository interface {
	GetByUserId(ctx context.Context, userId uuid.UUID) (*entity.EmotionalState, error)
	Save(ctx context.Context, state *entity.EmotionalState) error
}

type GameStateRepository interface {
	GetByUserId(ctx context.Context, userId uuid.UUID) (*entity.GameState, error)
	Save(ctx context.Context, state *entity.GameState) error
}
