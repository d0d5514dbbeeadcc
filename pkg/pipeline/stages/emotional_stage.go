package stages

import (
	"context"
	"encoding/json"
	"fmt"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/repository/unitofwork"
	"companion-game-be/pkg/llm"
	"companion-game-be/pkg/pipeline"
)

const emotionalPrompt = `Rate the emotional tone of this conversation from the companion persona's point of view.
Respond with a single JSON object:
{"valence": -1.0 to 1.0, "arousal": 0.0 to 1.0, "dominant_emotion": "one word"}

Transcript:
%s`

type emotionalOutput struct {
	Valence         float64 `json:"valence"`
	Arousal         float64 `json:"arousal"`
	DominantEmotion string  `json:"dominant_emotion"`
}

// EmotionalStage updates the persona's emotional reading of the user. In
// conversation runs it scores the transcript; in user-scoped batch runs with
// no fresh transcript it decays the state toward baseline instead.
type EmotionalStage struct {
	llm llm.LLMProvider
}

func NewEmotionalStage(provider llm.LLMProvider) *EmotionalStage {
	return &EmotionalStage{llm: provider}
}

func (s *EmotionalStage) Name() pipeline.StageName { return pipeline.StageEmotional }
func (s *EmotionalStage) Critical() bool           { return false }

func (s *EmotionalStage) Run(ctx context.Context, pctx *pipeline.Context, uow unitofwork.UnitOfWork) error {
	repo := uow.EmotionalStateRepository()

	state, err := repo.GetByUserId(ctx, pctx.User.Id)
	if err != nil {
		return fmt.Errorf("load emotional state: %w", err)
	}
	if state == nil {
		state = &entity.EmotionalState{
			UserId:          pctx.User.Id,
			DominantEmotion: "neutral",
			Psyche: entity.PsycheTraits{
				Attachment:  0.5,
				Openness:    0.5,
				Playfulness: 0.5,
				Stability:   0.5,
			},
		}
	}

	transcript := pctx.Transcript()
	if transcript == "" {
		decayTowardBaseline(state)
	} else {
		raw, err := s.llm.Generate(ctx, fmt.Sprintf(emotionalPrompt, transcript),
			llm.WithJSONMode(), llm.WithTemperature(0.1))
		if err != nil {
			return fmt.Errorf("emotional llm call: %w", err)
		}

		var out emotionalOutput
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return fmt.Errorf("parse emotional output: %w", err)
		}

		// Blend rather than overwrite so one intense conversation does not
		// whiplash the state.
		state.Valence = 0.7*state.Valence + 0.3*clampRange(out.Valence, -1, 1)
		state.Arousal = 0.7*state.Arousal + 0.3*clampRange(out.Arousal, 0, 1)
		if out.DominantEmotion != "" {
			state.DominantEmotion = out.DominantEmotion
		}

		recalibratePsyche(state, pctx)
	}

	if err := repo.Save(ctx, state); err != nil {
		return fmt.Errorf("save emotional state: %w", err)
	}

	pctx.Emotional = state
	return nil
}

// decayTowardBaseline pulls the fast emotional readings 20% of the way back
// to neutral. Used by user-scoped batch runs between conversations.
func decayTowardBaseline(state *entity.EmotionalState) {
	state.Valence *= 0.8
	state.Arousal *= 0.8
	if state.Valence > -0.1 && state.Valence < 0.1 {
		state.DominantEmotion = "neutral"
	}
}

// recalibratePsyche nudges the slow personality traits from conversation
// evidence. Nudges are small: traits should take many conversations to move.
func recalibratePsyche(state *entity.EmotionalState, pctx *pipeline.Context) {
	if state.Valence > 0.3 {
		state.Psyche.Attachment = clampRange(state.Psyche.Attachment+0.02, 0, 1)
	}
	if len(pctx.OpenThreads) > 0 {
		state.Psyche.Openness = clampRange(state.Psyche.Openness+0.01, 0, 1)
	}
	if state.Arousal > 0.6 && state.Valence > 0 {
		state.Psyche.Playfulness = clampRange(state.Psyche.Playfulness+0.02, 0, 1)
	}
	if state.Valence < -0.3 {
		state.Psyche.Stability = clampRange(state.Psyche.Stability-0.02, 0, 1)
	} else {
		state.Psyche.Stability = clampRange(state.Psyche.Stability+0.005, 0, 1)
	}
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
