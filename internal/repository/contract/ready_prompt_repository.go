package contract

import (
	"context"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ReadyPromptRepository interface {
	// GetCurrent returns the unique is_current row for (user, platform), or
	// nil when none exists.
	GetCurrent(ctx context.Context, userId uuid.UUID, platform entity.Platform) (*entity.ReadyPrompt, error)

	// SetCurrent flips any prior current row for (user, platform) to false
	// and inserts the new row as current. Callers run it inside the pipeline
	// transaction so both writes commit together.
	SetCurrent(ctx context.Context, prompt *entity.ReadyPrompt) error

	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ReadyPrompt, error)
}
