package contract

import (
	"context"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/repository/specification"
)

type TouchpointRepository interface {
	Create(ctx context.Context, touchpoint *entity.Touchpoint) error
	Update(ctx context.Context, touchpoint *entity.Touchpoint) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Touchpoint, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
