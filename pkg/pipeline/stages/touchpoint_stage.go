package stages

import (
	"context"
	"fmt"
	"time"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/repository/specification"
	"companion-game-be/internal/repository/unitofwork"
	"companion-game-be/pkg/pipeline"
)

// maxScheduledTouchpoints caps how many undelivered touchpoints a user may
// accumulate. Past the cap the persona would feel pushy.
const maxScheduledTouchpoints = 3

// TouchpointStage turns open threads into scheduled proactive contacts.
type TouchpointStage struct{}

func NewTouchpointStage() *TouchpointStage { return &TouchpointStage{} }

func (s *TouchpointStage) Name() pipeline.StageName { return pipeline.StageTouchpoint }
func (s *TouchpointStage) Critical() bool           { return false }

func (s *TouchpointStage) Run(ctx context.Context, pctx *pipeline.Context, uow unitofwork.UnitOfWork) error {
	if len(pctx.OpenThreads) == 0 {
		return nil
	}

	repo := uow.TouchpointRepository()

	scheduled, err := repo.Count(ctx,
		specification.ByUserID{UserID: pctx.User.Id},
		specification.Filter("status", string(entity.TouchpointStatusScheduled)),
	)
	if err != nil {
		return fmt.Errorf("count scheduled touchpoints: %w", err)
	}

	budget := maxScheduledTouchpoints - int(scheduled)
	for i, topic := range pctx.OpenThreads {
		if budget <= 0 {
			break
		}

		err := repo.Create(ctx, &entity.Touchpoint{
			UserId:         pctx.User.Id,
			ConversationId: pctx.Conversation.Id,
			Topic:          topic,
			Platform:       pctx.Conversation.Platform,
			ScheduledFor:   nextContactSlot(pctx.Now, i),
			Status:         entity.TouchpointStatusScheduled,
		})
		if err != nil {
			return fmt.Errorf("create touchpoint: %w", err)
		}
		budget--
	}

	return nil
}

// nextContactSlot staggers touchpoints across evenings starting tomorrow at
// 18:00 UTC, one thread per day.
func nextContactSlot(now time.Time, index int) time.Time {
	day := now.AddDate(0, 0, 1+index)
	return time.Date(day.Year(), day.Month(), day.Day(), 18, 0, 0, 0, time.UTC)
}
