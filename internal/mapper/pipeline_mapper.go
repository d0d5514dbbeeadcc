package mapper

import (
	"encoding/json"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// PipelineMapper covers the derived-state tables written by pipeline stages.
type PipelineMapper struct{}

func NewPipelineMapper() *PipelineMapper {
	return &PipelineMapper{}
}

// ReadyPrompt

func (m *PipelineMapper) ReadyPromptToEntity(p *model.ReadyPrompt) *entity.ReadyPrompt {
	if p == nil {
		return nil
	}
	return &entity.ReadyPrompt{
		Id:              p.Id,
		UserId:          p.UserId,
		Platform:        entity.Platform(p.Platform),
		PromptText:      p.PromptText,
		TokenCount:      p.TokenCount,
		PipelineVersion: p.PipelineVersion,
		IsCurrent:       p.IsCurrent,
		GeneratedAt:     p.GeneratedAt,
	}
}

func (m *PipelineMapper) ReadyPromptToModel(p *entity.ReadyPrompt) *model.ReadyPrompt {
	if p == nil {
		return nil
	}
	return &model.ReadyPrompt{
		Id:              p.Id,
		UserId:          p.UserId,
		Platform:        string(p.Platform),
		PromptText:      p.PromptText,
		TokenCount:      p.TokenCount,
		PipelineVersion: p.PipelineVersion,
		IsCurrent:       p.IsCurrent,
		GeneratedAt:     p.GeneratedAt,
	}
}

// UserFact

func (m *PipelineMapper) UserFactToEntity(f *model.UserFact) *entity.UserFact {
	if f == nil {
		return nil
	}
	return &entity.UserFact{
		Id:             f.Id,
		UserId:         f.UserId,
		ConversationId: f.ConversationId,
		Category:       entity.FactCategory(f.Category),
		Content:        f.Content,
		ContentHash:    f.ContentHash,
		Embedding:      f.Embedding.Slice(),
		Confidence:     f.Confidence,
		CreatedAt:      f.CreatedAt,
	}
}

func (m *PipelineMapper) UserFactToModel(f *entity.UserFact) *model.UserFact {
	if f == nil {
		return nil
	}
	return &model.UserFact{
		Id:             f.Id,
		UserId:         f.UserId,
		ConversationId: f.ConversationId,
		Category:       string(f.Category),
		Content:        f.Content,
		ContentHash:    f.ContentHash,
		Embedding:      pgvector.NewVector(f.Embedding),
		Confidence:     f.Confidence,
		CreatedAt:      f.CreatedAt,
	}
}

func (m *PipelineMapper) UserFactsToEntities(models []*model.UserFact) []*entity.UserFact {
	entities := make([]*entity.UserFact, len(models))
	for i, f := range models {
		entities[i] = m.UserFactToEntity(f)
	}
	return entities
}

// PersonaState

func (m *PipelineMapper) PersonaStateToEntity(s *model.PersonaState) *entity.PersonaState {
	if s == nil {
		return nil
	}
	updatedAt := s.UpdatedAt
	return &entity.PersonaState{
		Id:              s.Id,
		UserId:          s.UserId,
		CurrentActivity: s.CurrentActivity,
		Energy:          s.Energy,
		MoodTrajectory:  s.MoodTrajectory,
		LastTickAt:      s.LastTickAt,
		UpdatedAt:       &updatedAt,
	}
}

func (m *PipelineMapper) PersonaStateToModel(s *entity.PersonaState) *model.PersonaState {
	if s == nil {
		return nil
	}
	out := &model.PersonaState{
		Id:              s.Id,
		UserId:          s.UserId,
		CurrentActivity: s.CurrentActivity,
		Energy:          s.Energy,
		MoodTrajectory:  s.MoodTrajectory,
		LastTickAt:      s.LastTickAt,
	}
	if s.UpdatedAt != nil {
		out.UpdatedAt = *s.UpdatedAt
	}
	return out
}

// EmotionalState

func (m *PipelineMapper) EmotionalStateToEntity(s *model.EmotionalState) *entity.EmotionalState {
	if s == nil {
		return nil
	}

	var psyche entity.PsycheTraits
	if len(s.Psyche) > 0 {
		_ = json.Unmarshal(s.Psyche, &psyche)
	}

	return &entity.EmotionalState{
		Id:              s.Id,
		UserId:          s.UserId,
		Valence:         s.Valence,
		Arousal:         s.Arousal,
		DominantEmotion: s.DominantEmotion,
		Psyche:          psyche,
		UpdatedAt:       s.UpdatedAt,
	}
}

func (m *PipelineMapper) EmotionalStateToModel(s *entity.EmotionalState) *model.EmotionalState {
	if s == nil {
		return nil
	}
	raw, _ := json.Marshal(s.Psyche)
	return &model.EmotionalState{
		Id:              s.Id,
		UserId:          s.UserId,
		Valence:         s.Valence,
		Arousal:         s.Arousal,
		DominantEmotion: s.DominantEmotion,
		Psyche:          datatypes.JSON(raw),
		UpdatedAt:       s.UpdatedAt,
	}
}

// GameState

func (m *PipelineMapper) GameStateToEntity(s *model.GameState) *entity.GameState {
	if s == nil {
		return nil
	}
	return &entity.GameState{
		Id:        s.Id,
		UserId:    s.UserId,
		Score:     s.Score,
		Affinity:  s.Affinity,
		Level:     s.Level,
		LastDelta: s.LastDelta,
		UpdatedAt: s.UpdatedAt,
	}
}

func (m *PipelineMapper) GameStateToModel(s *entity.GameState) *model.GameState {
	if s == nil {
		return nil
	}
	return &model.GameState{
		Id:        s.Id,
		UserId:    s.UserId,
		Score:     s.Score,
		Affinity:  s.Affinity,
		Level:     s.Level,
		LastDelta: s.LastDelta,
		UpdatedAt: s.UpdatedAt,
	}
}

// Conflict

func (m *PipelineMapper) ConflictToEntity(c *model.Conflict) *entity.Conflict {
	if c == nil {
		return nil
	}
	return &entity.Conflict{
		Id:             c.Id,
		UserId:         c.UserId,
		ConversationId: c.ConversationId,
		NewFactId:      c.NewFactId,
		StoredFactId:   c.StoredFactId,
		Description:    c.Description,
		Status:         entity.ConflictStatus(c.Status),
		DetectedAt:     c.DetectedAt,
	}
}

func (m *PipelineMapper) ConflictToModel(c *entity.Conflict) *model.Conflict {
	if c == nil {
		return nil
	}
	return &model.Conflict{
		Id:             c.Id,
		UserId:         c.UserId,
		ConversationId: c.ConversationId,
		NewFactId:      c.NewFactId,
		StoredFactId:   c.StoredFactId,
		Description:    c.Description,
		Status:         string(c.Status),
		DetectedAt:     c.DetectedAt,
	}
}

// Touchpoint

func (m *PipelineMapper) TouchpointToEntity(t *model.Touchpoint) *entity.Touchpoint {
	if t == nil {
		return nil
	}
	return &entity.Touchpoint{
		Id:             t.Id,
		UserId:         t.UserId,
		ConversationId: t.ConversationId,
		Topic:          t.Topic,
		Platform:       entity.Platform(t.Platform),
		ScheduledFor:   t.ScheduledFor,
		Status:         entity.TouchpointStatus(t.Status),
		CreatedAt:      t.CreatedAt,
	}
}

func (m *PipelineMapper) TouchpointToModel(t *entity.Touchpoint) *model.Touchpoint {
	if t == nil {
		return nil
	}
	return &model.Touchpoint{
		Id:             t.Id,
		UserId:         t.UserId,
		ConversationId: t.ConversationId,
		Topic:          t.Topic,
		Platform:       string(t.Platform),
		ScheduledFor:   t.ScheduledFor,
		Status:         string(t.Status),
		CreatedAt:      t.CreatedAt,
	}
}

// ConversationSummary

func (m *PipelineMapper) SummaryToEntity(s *model.ConversationSummary) *entity.ConversationSummary {
	if s == nil {
		return nil
	}
	return &entity.ConversationSummary{
		Id:             s.Id,
		UserId:         s.UserId,
		ConversationId: s.ConversationId,
		Summary:        s.Summary,
		MessageCount:   s.MessageCount,
		CreatedAt:      s.CreatedAt,
	}
}

func (m *PipelineMapper) SummaryToModel(s *entity.ConversationSummary) *model.ConversationSummary {
	if s == nil {
		return nil
	}
	return &model.ConversationSummary{
		Id:             s.Id,
		UserId:         s.UserId,
		ConversationId: s.ConversationId,
		Summary:        s.Summary,
		MessageCount:   s.MessageCount,
		CreatedAt:      s.CreatedAt,
	}
}
