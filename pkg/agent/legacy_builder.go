package agent

import (
	"context"
	"fmt"
	"strings"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/repository/contract"
	"companion-game-be/internal/repository/specification"

	"github.com/google/uuid"
)

// LegacyPromptBuilder assembles a prompt on the fly from whatever state is
// in the database. It is the fallback when no ready prompt exists for a
// user; it reads through the root repositories, never a transaction.
type LegacyPromptBuilder struct {
	facts     contract.UserFactRepository
	emotional contract.EmotionalStateRepository
	game      contract.GameStateRepository
}

func NewLegacyPromptBuilder(
	facts contract.UserFactRepository,
	emotional contract.EmotionalStateRepository,
	game contract.GameStateRepository,
) *LegacyPromptBuilder {
	return &LegacyPromptBuilder{
		facts:     facts,
		emotional: emotional,
		game:      game,
	}
}

// Build returns a best-effort prompt. It degrades section by section: a
// failed lookup drops that section rather than failing the whole build.
func (b *LegacyPromptBuilder) Build(ctx context.Context, userId uuid.UUID, platform entity.Platform) string {
	var sb strings.Builder

	sb.WriteString("# Identity\n")
	sb.WriteString("You are the user's companion persona. Stay in character at all times.\n")

	if state, err := b.emotional.GetByUserId(ctx, userId); err == nil && state != nil {
		sb.WriteString("\n# Disposition\n")
		fmt.Fprintf(&sb, "Feeling toward the user: valence %.2f, dominant emotion %s.\n",
			state.Valence, state.DominantEmotion)
	}

	if state, err := b.game.GetByUserId(ctx, userId); err == nil && state != nil {
		sb.WriteString("\n# Relationship\n")
		fmt.Fprintf(&sb, "Relationship level %d, affinity %.2f.\n", state.Level, state.Affinity)
	}

	stored, err := b.facts.FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: 20},
	)
	if err == nil && len(stored) > 0 {
		sb.WriteString("\n# What you know about the user\n")
		for _, fact := range stored {
			if fact.Category == entity.FactCategoryInnerThought {
				continue
			}
			sb.WriteString("- " + fact.Content + "\n")
		}
	}

	sb.WriteString("\n# Style\n")
	if platform == entity.PlatformVoice {
		sb.WriteString("This is a voice call: keep replies short and conversational, no lists or markup.\n")
	} else {
		sb.WriteString("This is a text chat: casual register, emoji sparingly.\n")
	}

	return sb.String()
}
