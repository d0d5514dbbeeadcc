package stages

import (
	"context"
	"fmt"

	"companion-game-be/internal/repository/specification"
	"companion-game-be/internal/repository/unitofwork"
	"companion-game-be/pkg/embedding"
	"companion-game-be/pkg/pipeline"
)

// MemoryUpdateStage embeds the extracted facts and writes them to long-term
// memory, then loads the user's full fact set for the stages behind it.
type MemoryUpdateStage struct {
	embedder embedding.EmbeddingProvider
}

func NewMemoryUpdateStage(embedder embedding.EmbeddingProvider) *MemoryUpdateStage {
	return &MemoryUpdateStage{embedder: embedder}
}

func (s *MemoryUpdateStage) Name() pipeline.StageName { return pipeline.StageMemoryUpdate }
func (s *MemoryUpdateStage) Critical() bool           { return false }

func (s *MemoryUpdateStage) Run(ctx context.Context, pctx *pipeline.Context, uow unitofwork.UnitOfWork) error {
	facts := uow.UserFactRepository()

	var firstErr error
	for _, fact := range pctx.ExtractedFacts {
		vector, err := s.embedder.Generate(ctx, fact.Content)
		if err != nil {
			// An unembedded fact is still worth storing; it just won't
			// participate in similarity lookups until re-embedded.
			if firstErr == nil {
				firstErr = fmt.Errorf("embed fact: %w", err)
			}
		} else {
			fact.Embedding = vector
		}

		if err := facts.Upsert(ctx, fact); err != nil {
			return fmt.Errorf("upsert fact: %w", err)
		}
	}

	stored, err := facts.FindAll(ctx, specification.ByUserID{UserID: pctx.User.Id})
	if err != nil {
		return fmt.Errorf("load stored facts: %w", err)
	}
	pctx.StoredFacts = stored

	return firstErr
}
