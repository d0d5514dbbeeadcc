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

type ConversationSummaryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PipelineMapper
}

func NewConversationSummaryRepository(db *gorm.DB) contract.ConversationSummaryRepository {
	return &ConversationSummaryRepositoryImpl{db: db, mapper: mapper.NewPipelineMapper()}
}

func (r *ConversationSummaryRepositoryImpl) Upsert(ctx context.Context, summary *entity.ConversationSummary) error {
	m := r.mapper.SummaryToModel(summary)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "conversation_id"}},
			UpdateAll: true,
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*summary = *r.mapper.SummaryToEntity(m)
	return nil
}

func (r *ConversationSummaryRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationSummary, error) {
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}

	var models []*model.ConversationSummary
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ConversationSummary, len(models))
	for i, m := range models {
		entities[i] = r.mapper.SummaryToEntity(m)
	}
	return entities, nil
}
