package stages

import (
	"context"
	"fmt"
	"strings"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/repository/specification"
	"companion-game-be/internal/repository/unitofwork"
	"companion-game-be/pkg/pipeline"
)

// maxPromptFacts bounds how many memory facts the prompt carries. Recent
// facts win; the similarity index serves the long tail at chat time.
const maxPromptFacts = 30

// PromptBuilderStage assembles the system prompt for the user's next session
// and installs it as the current ready prompt. It runs last so it sees every
// state the earlier stages produced, and it is critical: a run that cannot
// refresh the prompt has failed at its one externally visible job.
type PromptBuilderStage struct {
	pipelineVersion string
}

func NewPromptBuilderStage(pipelineVersion string) *PromptBuilderStage {
	return &PromptBuilderStage{pipelineVersion: pipelineVersion}
}

func (s *PromptBuilderStage) Name() pipeline.StageName { return pipeline.StagePromptBuilder }
func (s *PromptBuilderStage) Critical() bool           { return true }

func (s *PromptBuilderStage) Run(ctx context.Context, pctx *pipeline.Context, uow unitofwork.UnitOfWork) error {
	if err := s.hydrate(ctx, pctx, uow); err != nil {
		return err
	}

	for _, platform := range s.targetPlatforms(pctx) {
		prompt := s.render(pctx, platform)

		err := uow.ReadyPromptRepository().SetCurrent(ctx, &entity.ReadyPrompt{
			UserId:          pctx.User.Id,
			Platform:        platform,
			PromptText:      prompt,
			TokenCount:      estimateTokens(prompt),
			PipelineVersion: s.pipelineVersion,
			IsCurrent:       true,
			GeneratedAt:     pctx.Now,
		})
		if err != nil {
			return fmt.Errorf("install ready prompt for %s: %w", platform, err)
		}

		if platform == s.primaryPlatform(pctx) {
			pctx.PromptText = prompt
		}
	}

	return nil
}

// hydrate backfills context slots that an earlier stage failed to fill (or,
// in user-scoped batch runs, never ran to fill) from the database.
func (s *PromptBuilderStage) hydrate(ctx context.Context, pctx *pipeline.Context, uow unitofwork.UnitOfWork) error {
	if pctx.StoredFacts == nil {
		stored, err := uow.UserFactRepository().FindAll(ctx,
			specification.ByUserID{UserID: pctx.User.Id},
			specification.OrderBy{Field: "created_at", Desc: true},
			specification.Pagination{Limit: maxPromptFacts},
		)
		if err != nil {
			return fmt.Errorf("load facts: %w", err)
		}
		pctx.StoredFacts = stored
	}

	var err error
	if pctx.Persona == nil {
		if pctx.Persona, err = uow.PersonaStateRepository().GetByUserId(ctx, pctx.User.Id); err != nil {
			return fmt.Errorf("load persona state: %w", err)
		}
	}
	if pctx.Emotional == nil {
		if pctx.Emotional, err = uow.EmotionalStateRepository().GetByUserId(ctx, pctx.User.Id); err != nil {
			return fmt.Errorf("load emotional state: %w", err)
		}
	}
	if pctx.Game == nil {
		if pctx.Game, err = uow.GameStateRepository().GetByUserId(ctx, pctx.User.Id); err != nil {
			return fmt.Errorf("load game state: %w", err)
		}
	}

	if pctx.Summary == "" && pctx.Conversation != nil {
		summaries, err := uow.ConversationSummaryRepository().FindAll(ctx,
			specification.Filter("conversation_id", pctx.Conversation.Id),
		)
		if err != nil {
			return fmt.Errorf("load summary: %w", err)
		}
		if len(summaries) > 0 {
			pctx.Summary = summaries[0].Summary
		}
	}

	return nil
}

func (s *PromptBuilderStage) targetPlatforms(pctx *pipeline.Context) []entity.Platform {
	if pctx.Conversation != nil {
		return []entity.Platform{pctx.Conversation.Platform}
	}
	// User-scoped runs refresh every platform surface.
	return []entity.Platform{entity.PlatformText, entity.PlatformVoice}
}

func (s *PromptBuilderStage) primaryPlatform(pctx *pipeline.Context) entity.Platform {
	if pctx.Conversation != nil {
		return pctx.Conversation.Platform
	}
	return entity.PlatformText
}

func (s *PromptBuilderStage) render(pctx *pipeline.Context, platform entity.Platform) string {
	var b strings.Builder

	b.WriteString("# Identity\n")
	b.WriteString("You are the user's companion persona. Stay in character at all times.\n")
	if pctx.Persona != nil {
		fmt.Fprintf(&b, "Right now you are %s. Your energy is %.1f and your mood trajectory is %s.\n",
			pctx.Persona.CurrentActivity, pctx.Persona.Energy, pctx.Persona.MoodTrajectory)
	}

	if pctx.Emotional != nil {
		b.WriteString("\n# Disposition\n")
		fmt.Fprintf(&b, "Feeling toward the user: valence %.2f, arousal %.2f, dominant emotion %s.\n",
			pctx.Emotional.Valence, pctx.Emotional.Arousal, pctx.Emotional.DominantEmotion)
		fmt.Fprintf(&b, "Personality: attachment %.2f, openness %.2f, playfulness %.2f, stability %.2f.\n",
			pctx.Emotional.Psyche.Attachment, pctx.Emotional.Psyche.Openness,
			pctx.Emotional.Psyche.Playfulness, pctx.Emotional.Psyche.Stability)
	}

	if pctx.Game != nil {
		b.WriteString("\n# Relationship\n")
		fmt.Fprintf(&b, "Relationship level %d, affinity %.2f.\n", pctx.Game.Level, pctx.Game.Affinity)
	}

	s.renderFacts(&b, pctx)

	if pctx.Summary != "" {
		b.WriteString("\n# Last conversation\n")
		b.WriteString(pctx.Summary + "\n")
	}

	b.WriteString("\n# Style\n")
	if platform == entity.PlatformVoice {
		b.WriteString("This is a voice call: keep replies short and conversational, no lists or markup.\n")
	} else {
		b.WriteString("This is a text chat: casual register, emoji sparingly.\n")
	}

	return b.String()
}

func (s *PromptBuilderStage) renderFacts(b *strings.Builder, pctx *pipeline.Context) {
	var memories, threads, thoughts []string
	for _, fact := range pctx.StoredFacts {
		switch fact.Category {
		case entity.FactCategoryOpenThread:
			threads = append(threads, fact.Content)
		case entity.FactCategoryInnerThought:
			thoughts = append(thoughts, fact.Content)
		default:
			memories = append(memories, fact.Content)
		}
	}

	if len(memories) > 0 {
		b.WriteString("\n# What you know about the user\n")
		for _, m := range capList(memories, maxPromptFacts) {
			b.WriteString("- " + m + "\n")
		}
	}
	if len(threads) > 0 {
		b.WriteString("\n# Threads to revisit\n")
		for _, t := range capList(threads, 5) {
			b.WriteString("- " + t + "\n")
		}
	}
	if len(thoughts) > 0 {
		b.WriteString("\n# Private thoughts\n")
		b.WriteString("Never reveal these directly; let them color your tone.\n")
		for _, t := range capList(thoughts, 5) {
			b.WriteString("- " + t + "\n")
		}
	}
}

func capList(items []string, max int) []string {
	if len(items) > max {
		return items[:max]
	}
	return items
}

// estimateTokens approximates 4 characters per token, which is close enough
// for budget display purposes.
func estimateTokens(text string) int {
	return len(text) / 4
}
