package stages

import (
	"context"
	"fmt"
	"strings"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/repository/unitofwork"
	"companion-game-be/pkg/llm"
	"companion-game-be/pkg/pipeline"
)

const summaryPrompt = `Summarize this conversation between a user and their companion persona in 2-4 sentences.
Write from the persona's perspective ("we talked about..."). Mention topics, mood, and any plans made.

Transcript:
%s`

// SummaryStage produces a compact recap of the conversation for the prompt
// builder and for the persona's episodic memory.
type SummaryStage struct {
	llm llm.LLMProvider
}

func NewSummaryStage(provider llm.LLMProvider) *SummaryStage {
	return &SummaryStage{llm: provider}
}

func (s *SummaryStage) Name() pipeline.StageName { return pipeline.StageSummary }
func (s *SummaryStage) Critical() bool           { return false }

func (s *SummaryStage) Run(ctx context.Context, pctx *pipeline.Context, uow unitofwork.UnitOfWork) error {
	transcript := pctx.Transcript()
	if transcript == "" {
		return nil
	}

	summary, err := s.llm.Generate(ctx, fmt.Sprintf(summaryPrompt, transcript),
		llm.WithTemperature(0.3), llm.WithMaxTokens(300))
	if err != nil {
		return fmt.Errorf("summary llm call: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return fmt.Errorf("empty summary")
	}

	err = uow.ConversationSummaryRepository().Upsert(ctx, &entity.ConversationSummary{
		UserId:         pctx.User.Id,
		ConversationId: pctx.Conversation.Id,
		Summary:        summary,
		MessageCount:   len(pctx.Conversation.Messages),
	})
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}

	pctx.Summary = summary
	return nil
}
