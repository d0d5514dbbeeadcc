package stages

import (
	"context"
	"fmt"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/repository/unitofwork"
	"companion-game-be/pkg/pipeline"
)

// Level thresholds: level N requires levelStep*N*(N+1)/2 points.
const levelStep = 100

// GameStateStage applies deterministic relationship scoring: points for
// engagement, affinity movement from emotional valence, level from total
// score. No LLM involvement so replaying a run scores identically.
type GameStateStage struct{}

func NewGameStateStage() *GameStateStage { return &GameStateStage{} }

func (s *GameStateStage) Name() pipeline.StageName { return pipeline.StageGameState }
func (s *GameStateStage) Critical() bool           { return false }

func (s *GameStateStage) Run(ctx context.Context, pctx *pipeline.Context, uow unitofwork.UnitOfWork) error {
	repo := uow.GameStateRepository()

	state, err := repo.GetByUserId(ctx, pctx.User.Id)
	if err != nil {
		return fmt.Errorf("load game state: %w", err)
	}
	if state == nil {
		state = &entity.GameState{
			UserId:   pctx.User.Id,
			Level:    1,
			Affinity: 0.1,
		}
	}

	delta := scoreDelta(pctx)
	state.Score += delta
	state.LastDelta = delta
	state.Level = levelForScore(state.Score)

	if pctx.Emotional != nil {
		state.Affinity = clampRange(state.Affinity+0.05*pctx.Emotional.Valence, 0, 1)
	}

	if err := repo.Save(ctx, state); err != nil {
		return fmt.Errorf("save game state: %w", err)
	}

	pctx.Game = state
	return nil
}

func scoreDelta(pctx *pipeline.Context) int {
	if pctx.Conversation == nil {
		return 0
	}

	delta := 0
	for _, msg := range pctx.Conversation.Messages {
		if msg.Role == entity.MessageRoleUser {
			delta += 2
		}
	}

	// Sharing durable facts is worth more than chatter.
	delta += 5 * len(pctx.ExtractedFacts)

	if delta > 100 {
		delta = 100
	}
	return delta
}

func levelForScore(score int) int {
	level := 1
	threshold := levelStep
	for score >= threshold {
		level++
		threshold += levelStep * level
	}
	return level
}
