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

type ConflictRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PipelineMapper
}

func NewConflictRepository(db *gorm.DB) contract.ConflictRepository {
	return &ConflictRepositoryImpl{db: db, mapper: mapper.NewPipelineMapper()}
}

func (r *ConflictRepositoryImpl) Create(ctx context.Context, conflict *entity.Conflict) error {
	m := r.mapper.ConflictToModel(conflict)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*conflict = *r.mapper.ConflictToEntity(m)
	return nil
}

func (r *ConflictRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conflict, error) {
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}

	var models []*model.Conflict
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Conflict, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ConflictToEntity(m)
	}
	return entities, nil
}

func (r *ConflictRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.Conflict{})
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
