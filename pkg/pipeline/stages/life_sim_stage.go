package stages

import (
	"context"
	"fmt"
	"time"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/repository/unitofwork"
	"companion-game-be/pkg/pipeline"
)

// activitySchedule maps the hour of day to what the persona is nominally
// doing. Deterministic on purpose: two runs at the same hour agree.
var activitySchedule = []struct {
	fromHour int
	activity string
}{
	{0, "sleeping"},
	{7, "having breakfast"},
	{9, "working"},
	{12, "having lunch"},
	{13, "working"},
	{18, "cooking dinner"},
	{20, "relaxing at home"},
	{23, "sleeping"},
}

// LifeSimStage advances the persona's simulated life by the wall-clock time
// elapsed since its last tick.
type LifeSimStage struct{}

func NewLifeSimStage() *LifeSimStage { return &LifeSimStage{} }

func (s *LifeSimStage) Name() pipeline.StageName { return pipeline.StageLifeSim }
func (s *LifeSimStage) Critical() bool           { return false }

func (s *LifeSimStage) Run(ctx context.Context, pctx *pipeline.Context, uow unitofwork.UnitOfWork) error {
	repo := uow.PersonaStateRepository()

	state, err := repo.GetByUserId(ctx, pctx.User.Id)
	if err != nil {
		return fmt.Errorf("load persona state: %w", err)
	}
	if state == nil {
		state = &entity.PersonaState{
			UserId:         pctx.User.Id,
			Energy:         0.8,
			MoodTrajectory: "steady",
			LastTickAt:     pctx.Now,
		}
	}

	elapsed := pctx.Now.Sub(state.LastTickAt)
	state.Energy = tickEnergy(state.Energy, elapsed, pctx.Now.Hour())
	state.CurrentActivity = activityAt(pctx.Now.Hour())
	state.MoodTrajectory = trajectoryFor(state.Energy)
	state.LastTickAt = pctx.Now

	if err := repo.Save(ctx, state); err != nil {
		return fmt.Errorf("save persona state: %w", err)
	}

	pctx.Persona = state
	return nil
}

func activityAt(hour int) string {
	activity := activitySchedule[0].activity
	for _, slot := range activitySchedule {
		if hour >= slot.fromHour {
			activity = slot.activity
		}
	}
	return activity
}

// tickEnergy recovers energy during sleep hours and drains it slowly while
// awake, bounded to [0.1, 1].
func tickEnergy(current float64, elapsed time.Duration, hour int) float64 {
	hours := elapsed.Hours()
	if hours < 0 {
		hours = 0
	}
	if hours > 48 {
		hours = 48
	}

	if hour < 7 || hour >= 23 {
		current += 0.1 * hours
	} else {
		current -= 0.02 * hours
	}

	if current > 1 {
		return 1
	}
	if current < 0.1 {
		return 0.1
	}
	return current
}

func trajectoryFor(energy float64) string {
	switch {
	case energy >= 0.7:
		return "upbeat"
	case energy >= 0.4:
		return "steady"
	default:
		return "tired"
	}
}
