package contract

import (
	"context"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/repository/specification"
)

type ConflictRepository interface {
	Create(ctx context.Context, conflict *entity.Conflict) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conflict, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
