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

const conflictPrompt = `Compare a newly learned fact about a user against previously stored facts in the same category.
New fact: %q
Stored facts:
%s
Respond with a single JSON object:
{"conflicts": [{"stored_index": 0, "description": "why they contradict"}]}
Report only direct contradictions, not refinements or additions.`

type conflictOutput struct {
	Conflicts []struct {
		StoredIndex int    `json:"stored_index"`
		Description string `json:"description"`
	} `json:"conflicts"`
}

// ConflictStage checks new biography and preference facts against stored
// ones and records contradictions for later resolution. It never resolves:
// deciding which fact wins is a product decision, not a pipeline one.
type ConflictStage struct {
	llm llm.LLMProvider
}

func NewConflictStage(provider llm.LLMProvider) *ConflictStage {
	return &ConflictStage{llm: provider}
}

func (s *ConflictStage) Name() pipeline.StageName { return pipeline.StageConflict }
func (s *ConflictStage) Critical() bool           { return false }

func (s *ConflictStage) Run(ctx context.Context, pctx *pipeline.Context, uow unitofwork.UnitOfWork) error {
	conflicts := uow.ConflictRepository()

	for _, fresh := range pctx.ExtractedFacts {
		if fresh.Category != entity.FactCategoryBiography && fresh.Category != entity.FactCategoryPreference {
			continue
		}

		prior := priorFactsInCategory(pctx, fresh)
		if len(prior) == 0 {
			continue
		}

		raw, err := s.llm.Generate(ctx,
			fmt.Sprintf(conflictPrompt, fresh.Content, renderFactList(prior)),
			llm.WithJSONMode(), llm.WithTemperature(0.1))
		if err != nil {
			return fmt.Errorf("conflict llm call: %w", err)
		}

		var out conflictOutput
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return fmt.Errorf("parse conflict output: %w", err)
		}

		for _, c := range out.Conflicts {
			if c.StoredIndex < 0 || c.StoredIndex >= len(prior) {
				continue
			}
			err := conflicts.Create(ctx, &entity.Conflict{
				UserId:         pctx.User.Id,
				ConversationId: pctx.Conversation.Id,
				NewFactId:      fresh.Id,
				StoredFactId:   prior[c.StoredIndex].Id,
				Description:    c.Description,
				Status:         entity.ConflictStatusOpen,
				DetectedAt:     pctx.Now,
			})
			if err != nil {
				return fmt.Errorf("record conflict: %w", err)
			}
		}
	}

	return nil
}

// priorFactsInCategory returns stored facts in the fresh fact's category,
// excluding the fresh fact itself (it was just upserted).
func priorFactsInCategory(pctx *pipeline.Context, fresh *entity.UserFact) []*entity.UserFact {
	var prior []*entity.UserFact
	for _, stored := range pctx.StoredFacts {
		if stored.Category == fresh.Category && stored.ContentHash != fresh.ContentHash {
			prior = append(prior, stored)
		}
	}
	return prior
}

func renderFactList(facts []*entity.UserFact) string {
	var out string
	for i, f := range facts {
		out += fmt.Sprintf("%d. %s\n", i, f.Content)
	}
	return out
}
