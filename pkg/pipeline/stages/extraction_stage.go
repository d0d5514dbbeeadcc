package stages

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/repository/unitofwork"
	"companion-game-be/pkg/llm"
	"companion-game-be/pkg/pipeline"
)

const extractionPrompt = `You analyze a conversation between a user and their companion persona.
Extract durable information about the USER only. Respond with a single JSON object:
{
  "facts": [{"category": "biography|preference|relationship", "content": "...", "confidence": 0.0}],
  "open_threads": ["unresolved topic the user may want to revisit"],
  "inner_thoughts": ["short first-person reflection the persona could privately hold"]
}
Only include facts stated or strongly implied in the transcript. Keep each entry under 200 characters.

Transcript:
%s`

type extractionOutput struct {
	Facts []struct {
		Category   string  `json:"category"`
		Content    string  `json:"content"`
		Confidence float64 `json:"confidence"`
	} `json:"facts"`
	OpenThreads   []string `json:"open_threads"`
	InnerThoughts []string `json:"inner_thoughts"`
}

// ExtractionStage mines the transcript for durable user facts, open threads
// and persona inner thoughts. Everything downstream consumes its output, so
// it is critical: a run that cannot extract has nothing to process.
type ExtractionStage struct {
	llm llm.LLMProvider
}

func NewExtractionStage(provider llm.LLMProvider) *ExtractionStage {
	return &ExtractionStage{llm: provider}
}

func (s *ExtractionStage) Name() pipeline.StageName { return pipeline.StageExtraction }
func (s *ExtractionStage) Critical() bool           { return true }

func (s *ExtractionStage) Run(ctx context.Context, pctx *pipeline.Context, _ unitofwork.UnitOfWork) error {
	transcript := pctx.Transcript()
	if transcript == "" {
		return fmt.Errorf("empty transcript")
	}

	raw, err := s.llm.Generate(ctx, fmt.Sprintf(extractionPrompt, transcript),
		llm.WithJSONMode(), llm.WithTemperature(0.2))
	if err != nil {
		return fmt.Errorf("extraction llm call: %w", err)
	}

	var out extractionOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return fmt.Errorf("parse extraction output: %w", err)
	}

	for _, f := range out.Facts {
		category := parseFactCategory(f.Category)
		if category == "" || strings.TrimSpace(f.Content) == "" {
			continue
		}
		pctx.ExtractedFacts = append(pctx.ExtractedFacts, &entity.UserFact{
			UserId:         pctx.User.Id,
			ConversationId: pctx.Conversation.Id,
			Category:       category,
			Content:        strings.TrimSpace(f.Content),
			ContentHash:    HashFactContent(f.Content),
			Confidence:     clamp01(f.Confidence),
		})
	}

	for _, thread := range out.OpenThreads {
		if t := strings.TrimSpace(thread); t != "" {
			pctx.OpenThreads = append(pctx.OpenThreads, t)
			pctx.ExtractedFacts = append(pctx.ExtractedFacts, &entity.UserFact{
				UserId:         pctx.User.Id,
				ConversationId: pctx.Conversation.Id,
				Category:       entity.FactCategoryOpenThread,
				Content:        t,
				ContentHash:    HashFactContent(t),
				Confidence:     1,
			})
		}
	}

	for _, thought := range out.InnerThoughts {
		if t := strings.TrimSpace(thought); t != "" {
			pctx.InnerThoughts = append(pctx.InnerThoughts, t)
			pctx.ExtractedFacts = append(pctx.ExtractedFacts, &entity.UserFact{
				UserId:         pctx.User.Id,
				ConversationId: pctx.Conversation.Id,
				Category:       entity.FactCategoryInnerThought,
				Content:        t,
				ContentHash:    HashFactContent(t),
				Confidence:     1,
			})
		}
	}

	return nil
}

func parseFactCategory(raw string) entity.FactCategory {
	switch entity.FactCategory(strings.ToLower(strings.TrimSpace(raw))) {
	case entity.FactCategoryBiography:
		return entity.FactCategoryBiography
	case entity.FactCategoryPreference:
		return entity.FactCategoryPreference
	case entity.FactCategoryRelationship:
		return entity.FactCategoryRelationship
	default:
		return ""
	}
}

// HashFactContent normalizes then hashes fact content. Dedup across
// conversations keys on this hash, so normalization must stay stable.
func HashFactContent(content string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(content), " "))
	return fmt.Sprintf("%x", sha256.Sum256([]byte(normalized)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
