package implementation

import (
	"context"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/mapper"
	"companion-game-be/internal/model"
	"companion-game-be/internal/repository/contract"
	"companion-game-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserFactRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PipelineMapper
}

func NewUserFactRepository(db *gorm.DB) contract.UserFactRepository {
	return &UserFactRepositoryImpl{
		db:     db,
		mapper: mapper.NewPipelineMapper(),
	}
}

func (r *UserFactRepositoryImpl) Upsert(ctx context.Context, fact *entity.UserFact) error {
	m := r.mapper.UserFactToModel(fact)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "content_hash"}},
			DoNothing: true,
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*fact = *r.mapper.UserFactToEntity(m)
	return nil
}

func (r *UserFactRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UserFact, error) {
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}

	var models []*model.UserFact
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.UserFactsToEntities(models), nil
}

func (r *UserFactRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.UserFact{})
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
