package implementation

import (
	"context"
	"errors"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/mapper"
	"companion-game-be/internal/model"
	"companion-game-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// The three per-user state repositories share the same shape: one row per
// user, read by user_id, written with an upsert on user_id.

type PersonaStateRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PipelineMapper
}

func NewPersonaStateRepository(db *gorm.DB) contract.PersonaStateRepository {
	return &PersonaStateRepositoryImpl{db: db, mapper: mapper.NewPipelineMapper()}
}

func (r *PersonaStateRepositoryImpl) GetByUserId(ctx context.Context, userId uuid.UUID) (*entity.PersonaState, error) {
	var m model.PersonaState
	if err := r.db.WithContext(ctx).Where("user_id = ?", userId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.PersonaStateToEntity(&m), nil
}

func (r *PersonaStateRepositoryImpl) Save(ctx context.Context, state *entity.PersonaState) error {
	m := r.mapper.PersonaStateToModel(state)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*state = *r.mapper.PersonaStateToEntity(m)
	return nil
}

type EmotionalStateRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PipelineMapper
}

func NewEmotionalStateRepository(db *gorm.DB) contract.EmotionalStateRepository {
	return &EmotionalStateRepositoryImpl{db: db, mapper: mapper.NewPipelineMapper()}
}

func (r *EmotionalStateRepositoryImpl) GetByUserId(ctx context.Context, userId uuid.UUID) (*entity.EmotionalState, error) {
	var m model.EmotionalState
	if err := r.db.WithContext(ctx).Where("user_id = ?", userId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.EmotionalStateToEntity(&m), nil
}

func (r *EmotionalStateRepositoryImpl) Save(ctx context.Context, state *entity.EmotionalState) error {
	m := r.mapper.EmotionalStateToModel(state)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*state = *r.mapper.EmotionalStateToEntity(m)
	return nil
}

type GameStateRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PipelineMapper
}

func NewGameStateRepository(db *gorm.DB) contract.GameStateRepository {
	return &GameStateRepositoryImpl{db: db, mapper: mapper.NewPipelineMapper()}
}

func (r *GameStateRepositoryImpl) GetByUserId(ctx context.Context, userId uuid.UUID) (*entity.GameState, error) {
	var m model.GameState
	if err := r.db.WithContext(ctx).Where("user_id = ?", userId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.GameStateToEntity(&m), nil
}

func (r *GameStateRepositoryImpl) Save(ctx context.Context, state *entity.GameState) error {
	m := r.mapper.GameStateToModel(state)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*state = *r.mapper.GameStateToEntity(m)
	return nil
}
