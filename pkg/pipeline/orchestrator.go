package pipeline

import (
	"context"
	"fmt"
	"time"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/pkg/logger"
	"companion-game-be/internal/repository/contract"
	"companion-game-be/internal/repository/specification"
	"companion-game-be/internal/repository/unitofwork"
	"companion-game-be/pkg/events"

	"github.com/google/uuid"
)

// EventPublisher is the slice of the NATS publisher the orchestrator needs.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Orchestrator drives one pipeline job: a fixed, ordered stage list executed
// inside a single transaction, with a ledger row opened before the first
// stage and finalized exactly once after the last.
type Orchestrator struct {
	jobName entity.JobName
	stages  []Stage

	uowFactory unitofwork.RepositoryFactory
	convRepo   contract.ConversationRepository
	userRepo   contract.UserRepository
	jobs       contract.JobExecutionRepository
	publisher  EventPublisher
	log        logger.ILogger
}

func NewOrchestrator(
	jobName entity.JobName,
	stages []Stage,
	uowFactory unitofwork.RepositoryFactory,
	convRepo contract.ConversationRepository,
	userRepo contract.UserRepository,
	jobs contract.JobExecutionRepository,
	publisher EventPublisher,
	log logger.ILogger,
) *Orchestrator {
	return &Orchestrator{
		jobName:    jobName,
		stages:     stages,
		uowFactory: uowFactory,
		convRepo:   convRepo,
		userRepo:   userRepo,
		jobs:       jobs,
		publisher:  publisher,
		log:        log,
	}
}

// Process runs the full stage list for one conversation. It always returns
// the finalized ledger row when one was opened, even on failure.
func (o *Orchestrator) Process(ctx context.Context, conversationId uuid.UUID) (*entity.JobExecution, error) {
	exec, err := o.jobs.StartExecution(ctx, o.jobName)
	if err != nil {
		return nil, fmt.Errorf("start execution: %w", err)
	}

	conversation, err := o.convRepo.FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil || conversation == nil {
		return o.fail(ctx, exec, nil, &entity.JobError{
			Kind:    "not_found",
			Message: fmt.Sprintf("conversation %s not found", conversationId),
		})
	}

	if err := o.jobs.AttachUser(ctx, exec.Id, conversation.UserId); err != nil {
		o.log.Warn("pipeline", "attach_user_failed", map[string]interface{}{
			"execution_id": exec.Id.String(), "error": err.Error(),
		})
	}

	switch conversation.Status {
	case entity.ConversationStatusProcessed:
		// Re-processing an already processed conversation is a no-op.
		o.log.Info("pipeline", "already_processed", map[string]interface{}{
			"conversation_id": conversationId.String(),
		})
		return o.complete(ctx, exec, &entity.JobMetrics{
			ConversationId: &conversation.Id,
			UserId:         &conversation.UserId,
		})
	case entity.ConversationStatusProcessing:
		return o.fail(ctx, exec, conversation, &entity.JobError{
			Kind:    "already_processing",
			Message: fmt.Sprintf("conversation %s is being processed by another run", conversationId),
		})
	}

	user, err := o.userRepo.FindOne(ctx, specification.ByID{ID: conversation.UserId})
	if err != nil || user == nil {
		return o.fail(ctx, exec, nil, &entity.JobError{
			Kind:    "not_found",
			Message: fmt.Sprintf("user %s not found", conversation.UserId),
		})
	}

	if err := o.convRepo.MarkProcessing(ctx, conversation.Id); err != nil {
		return o.fail(ctx, exec, nil, &entity.JobError{
			Kind:    "transition_failure",
			Message: err.Error(),
		})
	}

	if len(conversation.Messages) == 0 {
		// Nothing to process. Close the conversation without a run so it
		// never lingers in pending.
		if err := o.markProcessed(ctx, conversation); err != nil {
			return o.fail(ctx, exec, nil, &entity.JobError{Kind: "transition_failure", Message: err.Error()})
		}
		return o.complete(ctx, exec, &entity.JobMetrics{
			ConversationId: &conversation.Id,
			UserId:         &conversation.UserId,
		})
	}

	pctx := NewContext(conversation, user)
	uow := o.uowFactory.NewUnitOfWork(ctx)
	metrics, stageErr := o.runStages(ctx, pctx, uow)
	metrics.ConversationId = &conversation.Id
	metrics.UserId = &conversation.UserId

	if stageErr != nil {
		uow.Rollback()
		return o.fail(ctx, exec, conversation, stageErr)
	}

	if err := uow.Commit(); err != nil {
		return o.fail(ctx, exec, conversation, &entity.JobError{
			Kind:    "commit_failure",
			Message: err.Error(),
		})
	}

	if err := o.markProcessed(ctx, conversation); err != nil {
		// The run's data committed; only the status flip failed. The
		// recovery sweep will reset it, so report the run as failed.
		return o.fail(ctx, exec, nil, &entity.JobError{
			Kind:    "transition_failure",
			Message: err.Error(),
		})
	}

	final, err := o.complete(ctx, exec, metrics)
	if err == nil && o.publisher != nil {
		if pubErr := o.publisher.Publish(ctx, events.NewPipelineCompleted(
			conversation.Id.String(), conversation.UserId.String(), durationOrZero(final),
		)); pubErr != nil {
			o.log.Warn("pipeline", "publish_completed_failed", map[string]interface{}{"error": pubErr.Error()})
		}
	}
	return final, err
}

// ProcessUser runs a reduced stage list scoped to a user rather than a
// conversation. The most recent processed conversation, when one exists, is
// attached for stages that want transcript context.
func (o *Orchestrator) ProcessUser(ctx context.Context, userId uuid.UUID) (*entity.JobMetrics, *entity.JobError) {
	user, err := o.userRepo.FindOne(ctx, specification.ByID{ID: userId})
	if err != nil || user == nil {
		return nil, &entity.JobError{Kind: "not_found", Message: fmt.Sprintf("user %s not found", userId)}
	}

	conversation, err := o.convRepo.FindOne(ctx,
		specification.ByUserID{UserID: userId},
		specification.ByStatuses{Statuses: []string{string(entity.ConversationStatusProcessed)}},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		o.log.Warn("pipeline", "latest_conversation_lookup_failed", map[string]interface{}{
			"user_id": userId.String(), "error": err.Error(),
		})
	}

	pctx := NewContext(conversation, user)
	uow := o.uowFactory.NewUnitOfWork(ctx)
	metrics, stageErr := o.runStages(ctx, pctx, uow)
	if stageErr != nil {
		uow.Rollback()
		return metrics, stageErr
	}
	if err := uow.Commit(); err != nil {
		return metrics, &entity.JobError{Kind: "commit_failure", Message: err.Error()}
	}
	return metrics, nil
}

// runStages executes the ordered stage list inside one transaction. A
// critical stage failure aborts; non-critical failures are recorded in the
// metrics and the run continues.
func (o *Orchestrator) runStages(ctx context.Context, pctx *Context, uow unitofwork.UnitOfWork) (*entity.JobMetrics, *entity.JobError) {
	metrics := &entity.JobMetrics{
		StageDurations: make(map[string]int64, len(o.stages)),
	}

	if err := uow.Begin(ctx); err != nil {
		return metrics, &entity.JobError{Kind: "tx_failure", Message: err.Error()}
	}

	for _, stage := range o.stages {
		started := time.Now()
		err := stage.Run(ctx, pctx, uow)
		metrics.StageDurations[string(stage.Name())] = time.Since(started).Milliseconds()

		if err == nil {
			continue
		}

		if stage.Critical() {
			o.log.Error("pipeline", "critical_stage_failed", map[string]interface{}{
				"stage": string(stage.Name()), "error": err.Error(),
			})
			return metrics, &entity.JobError{
				Kind:    "stage_failure",
				Stage:   string(stage.Name()),
				Message: err.Error(),
			}
		}

		o.log.Warn("pipeline", "stage_failed", map[string]interface{}{
			"stage": string(stage.Name()), "error": err.Error(),
		})
		metrics.FailedStages = append(metrics.FailedStages, string(stage.Name()))
	}

	return metrics, nil
}

func (o *Orchestrator) markProcessed(ctx context.Context, conversation *entity.Conversation) error {
	now := time.Now().UTC()
	conversation.Status = entity.ConversationStatusProcessed
	conversation.ProcessedAt = &now
	return o.convRepo.Update(ctx, conversation)
}

func (o *Orchestrator) complete(ctx context.Context, exec *entity.JobExecution, metrics *entity.JobMetrics) (*entity.JobExecution, error) {
	return o.jobs.CompleteExecution(ctx, exec.Id, &entity.JobResult{Ok: metrics})
}

func (o *Orchestrator) fail(ctx context.Context, exec *entity.JobExecution, conversation *entity.Conversation, jobErr *entity.JobError) (*entity.JobExecution, error) {
	if conversation != nil && jobErr.Kind == "stage_failure" {
		conversation.Status = entity.ConversationStatusFailed
		if err := o.convRepo.Update(ctx, conversation); err != nil {
			o.log.Error("pipeline", "mark_failed_error", map[string]interface{}{
				"conversation_id": conversation.Id.String(), "error": err.Error(),
			})
		}
		if o.publisher != nil {
			if pubErr := o.publisher.Publish(ctx, events.NewPipelineFailed(
				conversation.Id.String(), conversation.UserId.String(), jobErr.Stage, jobErr.Message,
			)); pubErr != nil {
				o.log.Warn("pipeline", "publish_failed_event_failed", map[string]interface{}{"error": pubErr.Error()})
			}
		}
	}

	final, err := o.jobs.FailExecution(ctx, exec.Id, &entity.JobResult{Err: jobErr})
	if err != nil {
		return nil, fmt.Errorf("finalize execution: %w", err)
	}
	return final, fmt.Errorf("%s: %s", jobErr.Kind, jobErr.Message)
}

func durationOrZero(exec *entity.JobExecution) int64 {
	if exec == nil || exec.DurationMS == nil {
		return 0
	}
	return *exec.DurationMS
}
