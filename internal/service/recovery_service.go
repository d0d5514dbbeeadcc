package service

import (
	"context"
	"fmt"
	"time"

	"companion-game-be/internal/dto"
	"companion-game-be/internal/entity"
	"companion-game-be/internal/pkg/logger"
	"companion-game-be/internal/pkg/mailer"
	"companion-game-be/internal/repository/contract"
	"companion-game-be/internal/repository/specification"
	"companion-game-be/pkg/events"
	"companion-game-be/pkg/pipeline"
)

type IRecoveryService interface {
	// DetectStuck lists the conversations a sweep would reclaim right now.
	// It never mutates anything and never writes a ledger row.
	DetectStuck(ctx context.Context) (*dto.DetectStuckResponse, error)
	Recover(ctx context.Context) (*dto.RecoverResponse, error)
}

type recoveryService struct {
	conversations  contract.ConversationRepository
	jobs           contract.JobExecutionRepository
	publisher      pipeline.EventPublisher
	emailService   mailer.IEmailService
	alertEmail     string
	stuckThreshold time.Duration
	dedupWindow    time.Duration
	log            logger.ILogger
}

func NewRecoveryService(
	conversations contract.ConversationRepository,
	jobs contract.JobExecutionRepository,
	publisher pipeline.EventPublisher,
	emailService mailer.IEmailService,
	alertEmail string,
	stuckThreshold time.Duration,
	dedupWindow time.Duration,
	log logger.ILogger,
) IRecoveryService {
	return &recoveryService{
		conversations:  conversations,
		jobs:           jobs,
		publisher:      publisher,
		emailService:   emailService,
		alertEmail:     alertEmail,
		stuckThreshold: stuckThreshold,
		dedupWindow:    dedupWindow,
		log:            log,
	}
}

func (s *recoveryService) DetectStuck(ctx context.Context) (*dto.DetectStuckResponse, error) {
	stuck, err := s.findStuck(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(stuck))
	for _, conversation := range stuck {
		ids = append(ids, conversation.Id.String())
	}
	return &dto.DetectStuckResponse{
		StuckCount:      len(ids),
		ConversationIds: ids,
	}, nil
}

// findStuck returns processing conversations untouched past the threshold.
// Pending rows are left alone: they were never claimed by a worker, so there
// is nothing to reclaim.
func (s *recoveryService) findStuck(ctx context.Context) ([]*entity.Conversation, error) {
	cutoff := time.Now().UTC().Add(-s.stuckThreshold)
	return s.conversations.FindAll(ctx,
		specification.ByStatuses{Statuses: []string{string(entity.ConversationStatusProcessing)}},
		specification.StaleSince{Before: cutoff},
	)
}

// Recover finds conversations stuck in processing past the threshold and
// resets them to pending. A sweep that completed inside the dedup window
// suppresses this one: overlapping schedulers (cron plus manual trigger)
// must not double-reset the same conversations.
func (s *recoveryService) Recover(ctx context.Context) (*dto.RecoverResponse, error) {
	recent, err := s.jobs.HasRecentExecution(ctx, entity.JobNameRecovery, s.dedupWindow)
	if err != nil {
		return nil, err
	}
	if recent {
		s.log.Info("recovery", "sweep_skipped", map[string]interface{}{
			"window": s.dedupWindow.String(),
		})
		return &dto.RecoverResponse{
			Skipped:    true,
			SkipReason: fmt.Sprintf("a recovery sweep completed within the last %s", s.dedupWindow),
		}, nil
	}

	exec, err := s.jobs.StartExecution(ctx, entity.JobNameRecovery)
	if err != nil {
		return nil, err
	}

	stuck, err := s.findStuck(ctx)
	if err != nil {
		if _, finErr := s.jobs.FailExecution(ctx, exec.Id, &entity.JobResult{
			Err: &entity.JobError{Kind: "sweep_failure", Message: err.Error()},
		}); finErr != nil {
			s.log.Error("recovery", "finalize_failed", map[string]interface{}{"error": finErr.Error()})
		}
		return nil, err
	}

	var recovered []string
	var resetErrors []string
	for _, conversation := range stuck {
		if err := s.conversations.ResetToPending(ctx, conversation.Id); err != nil {
			s.log.Error("recovery", "reset_failed", map[string]interface{}{
				"conversation_id": conversation.Id.String(), "error": err.Error(),
			})
			resetErrors = append(resetErrors, fmt.Sprintf("%s: %s", conversation.Id, err.Error()))
			continue
		}
		recovered = append(recovered, conversation.Id.String())
	}

	count := len(recovered)
	if _, err := s.jobs.CompleteExecution(ctx, exec.Id, &entity.JobResult{
		Ok: &entity.JobMetrics{RecoveredCount: &count},
	}); err != nil {
		return nil, err
	}

	if count > 0 {
		s.notify(ctx, recovered)
	}

	s.log.Info("recovery", "sweep_completed", map[string]interface{}{
		"stuck_found": len(stuck), "recovered": count,
	})

	return &dto.RecoverResponse{
		RecoveredCount:  count,
		ConversationIds: recovered,
		Errors:          resetErrors,
	}, nil
}

func (s *recoveryService) notify(ctx context.Context, recovered []string) {
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewConversationsRecovered(recovered)); err != nil {
			s.log.Warn("recovery", "publish_failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if s.alertEmail != "" {
		if err := s.emailService.SendRecoveryAlert(s.alertEmail, recovered, s.stuckThreshold); err != nil {
			s.log.Warn("recovery", "alert_send_failed", map[string]interface{}{"error": err.Error()})
		}
	}
}
