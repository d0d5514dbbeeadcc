package implementation

import (
	"context"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/mapper"
	"companion-game-be/internal/model"
	"companion-game-be/internal/repository/contract"
	"companion-game-be/internal/repository/specification"

	"gorm.io/gorm"
)

type TouchpointRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PipelineMapper
}

func NewTouchpointRepository(db *gorm.DB) contract.TouchpointRepository {
	return &TouchpointRepositoryImpl{db: db, mapper: mapper.NewPipelineMapper()}
}

func (r *TouchpointRepositoryImpl) Create(ctx context.Context, touchpoint *entity.Touchpoint) error {
	m := r.mapper.TouchpointToModel(touchpoint)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*touchpoint = *r.mapper.TouchpointToEntity(m)
	return nil
}

func (r *TouchpointRepositoryImpl) Update(ctx context.Context, touchpoint *entity.Touchpoint) error {
	m := r.mapper.TouchpointToModel(touchpoint)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*touchpoint = *r.mapper.TouchpointToEntity(m)
	return nil
}

func (r *TouchpointRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Touchpoint, error) {
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}

	var models []*model.Touchpoint
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Touchpoint, len(models))
	for i, m := range models {
		entities[i] = r.mapper.TouchpointToEntity(m)
	}
	return entities, nil
}

func (r *TouchpointRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.Touchpoint{})
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
