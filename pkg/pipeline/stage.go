package pipeline

import (
	"context"

	"companion-game-be/internal/repository/unitofwork"
)

type StageName string

const (
	StageExtraction    StageName = "extraction"
	StageMemoryUpdate  StageName = "memory_update"
	StageLifeSim       StageName = "life_sim"
	StageEmotional     StageName = "emotional"
	StageGameState     StageName = "game_state"
	StageConflict      StageName = "conflict"
	StageTouchpoint    StageName = "touchpoint"
	StageSummary       StageName = "summary"
	StagePromptBuilder StageName = "prompt_builder"
)

// Stage is one step of a pipeline run. Stages write through the unit of work
// so everything a run produces commits or rolls back together.
type Stage interface {
	Name() StageName
	// Critical stages abort the whole run when they fail. Non-critical
	// failures are recorded and the run continues.
	Critical() bool
	Run(ctx context.Context, pctx *Context, uow unitofwork.UnitOfWork) error
}
