package stages

import (
	"companion-game-be/pkg/embedding"
	"companion-game-be/pkg/llm"
	"companion-game-be/pkg/pipeline"
)

// FullPipeline is the post-processing stage list. Order is fixed: extraction
// feeds everything behind it and the prompt builder must see the final state
// of everything in front of it.
func FullPipeline(provider llm.LLMProvider, embedder embedding.EmbeddingProvider, pipelineVersion string) []pipeline.Stage {
	return []pipeline.Stage{
		NewExtractionStage(provider),
		NewMemoryUpdateStage(embedder),
		NewLifeSimStage(),
		NewEmotionalStage(provider),
		NewGameStateStage(),
		NewConflictStage(provider),
		NewTouchpointStage(),
		NewSummaryStage(provider),
		NewPromptBuilderStage(pipelineVersion),
	}
}

// PsycheBatch is the reduced user-scoped list: recalibrate slow state and
// rebuild prompts without re-mining any transcript.
func PsycheBatch(provider llm.LLMProvider, pipelineVersion string) []pipeline.Stage {
	return []pipeline.Stage{
		NewEmotionalStage(provider),
		NewGameStateStage(),
		NewPromptBuilderStage(pipelineVersion),
	}
}
