package contract

import (
	"context"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/repository/specification"
)

type UserFactRepository interface {
	// Upsert inserts the fact, silently keeping the stored row when the same
	// (user, content hash) already exists.
	Upsert(ctx context.Context, fact *entity.UserFact) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UserFact, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
