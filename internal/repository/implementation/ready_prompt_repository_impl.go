package implementation

import (
	"context"
	"errors"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/mapper"
	"companion-game-be/internal/model"
	"companion-game-be/internal/repository/contract"
	"companion-game-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReadyPromptRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PipelineMapper
}

func NewReadyPromptRepository(db *gorm.DB) contract.ReadyPromptRepository {
	return &ReadyPromptRepositoryImpl{
		db:     db,
		mapper: mapper.NewPipelineMapper(),
	}
}

func (r *ReadyPromptRepositoryImpl) GetCurrent(ctx context.Context, userId uuid.UUID, platform entity.Platform) (*entity.ReadyPrompt, error) {
	var m model.ReadyPrompt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND platform = ? AND is_current = true", userId, string(platform)).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ReadyPromptToEntity(&m), nil
}

func (r *ReadyPromptRepositoryImpl) SetCurrent(ctx context.Context, prompt *entity.ReadyPrompt) error {
	// Both writes ride the caller's transaction when r.db is transactional,
	// which is how the single-is_current invariant survives two concurrent
	// runs for the same user.
	err := r.db.WithContext(ctx).Model(&model.ReadyPrompt{}).
		Where("user_id = ? AND platform = ? AND is_current = true", prompt.UserId, string(prompt.Platform)).
		Update("is_current", false).Error
	if err != nil {
		return err
	}

	m := r.mapper.ReadyPromptToModel(prompt)
	m.IsCurrent = true
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*prompt = *r.mapper.ReadyPromptToEntity(m)
	return nil
}

func (r *ReadyPromptRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ReadyPrompt, error) {
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}

	var models []*model.ReadyPrompt
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ReadyPrompt, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ReadyPromptToEntity(m)
	}
	return entities, nil
}
