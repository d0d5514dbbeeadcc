package service

import (
	"context"
	"fmt"

	"companion-game-be/internal/dto"
	"companion-game-be/internal/entity"
	"companion-game-be/internal/pkg/logger"
	"companion-game-be/internal/pkg/mailer"
	"companion-game-be/internal/repository/contract"
	"companion-game-be/internal/repository/specification"
	"companion-game-be/pkg/pipeline"

	"github.com/google/uuid"
)

type IPipelineService interface {
	Trigger(ctx context.Context, userId string, req *dto.TriggerPipelineRequest) (*dto.TriggerPipelineResponse, error)
	TriggerPsycheBatch(ctx context.Context, req *dto.TriggerPsycheBatchRequest) (*dto.TriggerPsycheBatchResponse, error)
	History(ctx context.Context, query *dto.PipelineHistoryQuery) ([]*dto.JobExecutionDTO, error)
	UserHistory(ctx context.Context, userId string, query *dto.UserPipelineHistoryQuery) (*dto.UserPipelineHistoryResponse, error)
}

type pipelineService struct {
	orchestrator  *pipeline.Orchestrator
	batch         *pipeline.Orchestrator
	jobs          contract.JobExecutionRepository
	conversations contract.ConversationRepository
	users         contract.UserRepository
	emailService  mailer.IEmailService
	alertEmail    string
	log           logger.ILogger
}

func NewPipelineService(
	orchestrator *pipeline.Orchestrator,
	batch *pipeline.Orchestrator,
	jobs contract.JobExecutionRepository,
	conversations contract.ConversationRepository,
	users contract.UserRepository,
	emailService mailer.IEmailService,
	alertEmail string,
	log logger.ILogger,
) IPipelineService {
	return &pipelineService{
		orchestrator:  orchestrator,
		batch:         batch,
		jobs:          jobs,
		conversations: conversations,
		users:         users,
		emailService:  emailService,
		alertEmail:    alertEmail,
		log:           log,
	}
}

func (s *pipelineService) Trigger(ctx context.Context, userId string, req *dto.TriggerPipelineRequest) (*dto.TriggerPipelineResponse, error) {
	uid, err := uuid.Parse(userId)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	user, err := s.users.FindOne(ctx, specification.ByID{ID: uid})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, contract.ErrUserNotFound
	}

	conversation, err := s.resolveConversation(ctx, uid, req.ConversationId)
	if err != nil {
		return nil, err
	}

	// Advisory only: two triggers racing past this check are still safe, the
	// orchestrator rejects the second when it sees status processing.
	running, err := s.jobs.HasRunning(ctx, entity.JobNamePostProcessing)
	if err != nil {
		return nil, err
	}
	if running {
		return &dto.TriggerPipelineResponse{AlreadyRunning: true, Status: "rejected"}, nil
	}

	exec, runErr := s.orchestrator.Process(ctx, conversation.Id)
	if exec == nil {
		return nil, runErr
	}

	if runErr != nil {
		s.log.Warn("pipeline_service", "run_failed", map[string]interface{}{
			"conversation_id": conversation.Id.String(), "error": runErr.Error(),
		})
		s.alertOnCriticalFailure(conversation, exec)
	}

	resp := &dto.TriggerPipelineResponse{
		JobExecutionId: exec.Id,
		Status:         string(exec.Status),
	}
	if exec.DurationMS != nil {
		resp.DurationMS = *exec.DurationMS
	}
	if exec.Result != nil && exec.Result.Ok != nil {
		resp.FailedStages = exec.Result.Ok.FailedStages
	}
	return resp, nil
}

// resolveConversation picks the explicit conversation when one was named,
// otherwise the user's most recent one. Either way it must belong to the
// user.
func (s *pipelineService) resolveConversation(ctx context.Context, userId uuid.UUID, raw string) (*entity.Conversation, error) {
	if raw != "" {
		conversationId, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid conversation id: %w", err)
		}
		conversation, err := s.conversations.FindOne(ctx, specification.ByID{ID: conversationId})
		if err != nil {
			return nil, err
		}
		if conversation == nil || conversation.UserId != userId {
			return nil, contract.ErrConversationNotFound
		}
		return conversation, nil
	}

	conversation, err := s.conversations.FindOne(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, contract.ErrConversationNotFound
	}
	return conversation, nil
}

func (s *pipelineService) alertOnCriticalFailure(conversation *entity.Conversation, exec *entity.JobExecution) {
	if s.alertEmail == "" || exec.Result == nil || exec.Result.Err == nil {
		return
	}
	jobErr := exec.Result.Err
	if jobErr.Kind != "stage_failure" {
		return
	}
	if err := s.emailService.SendCriticalFailureAlert(
		s.alertEmail, conversation.Id.String(), jobErr.Stage, jobErr.Message,
	); err != nil {
		s.log.Warn("pipeline_service", "alert_send_failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *pipelineService) TriggerPsycheBatch(ctx context.Context, req *dto.TriggerPsycheBatchRequest) (*dto.TriggerPsycheBatchResponse, error) {
	exec, err := s.jobs.StartExecution(ctx, entity.JobNamePsycheBatch)
	if err != nil {
		return nil, err
	}

	userIds, err := s.resolveUserIds(ctx, req.UserIds)
	if err != nil {
		failed, finErr := s.jobs.FailExecution(ctx, exec.Id, &entity.JobResult{
			Err: &entity.JobError{Kind: "user_listing", Message: err.Error()},
		})
		if finErr != nil {
			return nil, finErr
		}
		return &dto.TriggerPsycheBatchResponse{
			JobExecutionId: failed.Id,
			Status:         string(failed.Status),
		}, err
	}

	processed := 0
	for _, userId := range userIds {
		if _, userErr := s.batch.ProcessUser(ctx, userId); userErr != nil {
			s.log.Warn("pipeline_service", "psyche_batch_user_failed", map[string]interface{}{
				"user_id": userId.String(), "error": userErr.Message,
			})
			continue
		}
		processed++
	}

	final, err := s.jobs.CompleteExecution(ctx, exec.Id, &entity.JobResult{
		Ok: &entity.JobMetrics{ProcessedUsers: &processed},
	})
	if err != nil {
		return nil, err
	}

	return &dto.TriggerPsycheBatchResponse{
		JobExecutionId: final.Id,
		Status:         string(final.Status),
		ProcessedUsers: processed,
	}, nil
}

func (s *pipelineService) resolveUserIds(ctx context.Context, raw []string) ([]uuid.UUID, error) {
	if len(raw) > 0 {
		ids := make([]uuid.UUID, 0, len(raw))
		for _, r := range raw {
			id, err := uuid.Parse(r)
			if err != nil {
				return nil, fmt.Errorf("invalid user id %q: %w", r, err)
			}
			ids = append(ids, id)
		}
		return ids, nil
	}

	users, err := s.users.FindAll(ctx, specification.Filter("status", string(entity.UserStatusActive)))
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.Id)
	}
	return ids, nil
}

func (s *pipelineService) History(ctx context.Context, query *dto.PipelineHistoryQuery) ([]*dto.JobExecutionDTO, error) {
	var name *entity.JobName
	if query.JobName != "" {
		n := entity.JobName(query.JobName)
		name = &n
	}
	var status *entity.JobStatus
	if query.Status != "" {
		st := entity.JobStatus(query.Status)
		status = &st
	}

	limit := query.Limit
	if limit == 0 {
		limit = 20
	}

	executions, err := s.jobs.GetRecentExecutions(ctx, name, status, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.JobExecutionDTO, 0, len(executions))
	for _, exec := range executions {
		out = append(out, toJobExecutionDTO(exec))
	}
	return out, nil
}

func (s *pipelineService) UserHistory(ctx context.Context, userId string, query *dto.UserPipelineHistoryQuery) (*dto.UserPipelineHistoryResponse, error) {
	uid, err := uuid.Parse(userId)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	user, err := s.users.FindOne(ctx, specification.ByID{ID: uid})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, contract.ErrUserNotFound
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	executions, total, err := s.jobs.GetUserExecutions(ctx, uid, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.JobExecutionDTO, 0, len(executions))
	for _, exec := range executions {
		items = append(items, toJobExecutionDTO(exec))
	}
	return &dto.UserPipelineHistoryResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func toJobExecutionDTO(exec *entity.JobExecution) *dto.JobExecutionDTO {
	d := &dto.JobExecutionDTO{
		Id:          exec.Id,
		JobName:     string(exec.JobName),
		Status:      string(exec.Status),
		StartedAt:   exec.StartedAt,
		CompletedAt: exec.CompletedAt,
		DurationMS:  exec.DurationMS,
		Summary:     summarizeExecution(exec),
	}
	if exec.Result != nil {
		d.Result = resultMap(exec.Result)
	}
	return d
}

// summarizeExecution renders one human-readable line per ledger row for the
// admin dashboard.
func summarizeExecution(exec *entity.JobExecution) string {
	switch exec.Status {
	case entity.JobStatusRunning:
		return fmt.Sprintf("%s running since %s", exec.JobName, exec.StartedAt.Format("15:04:05"))
	case entity.JobStatusFailed:
		if exec.Result != nil && exec.Result.Err != nil {
			e := exec.Result.Err
			if e.Stage != "" {
				return fmt.Sprintf("%s failed at %s: %s", exec.JobName, e.Stage, e.Message)
			}
			return fmt.Sprintf("%s failed: %s", exec.JobName, e.Message)
		}
		return fmt.Sprintf("%s failed", exec.JobName)
	default:
		base := fmt.Sprintf("%s completed", exec.JobName)
		if exec.DurationMS != nil {
			base = fmt.Sprintf("%s in %dms", base, *exec.DurationMS)
		}
		if exec.Result != nil && exec.Result.Ok != nil {
			ok := exec.Result.Ok
			if len(ok.FailedStages) > 0 {
				base = fmt.Sprintf("%s (%d stage(s) skipped)", base, len(ok.FailedStages))
			}
			if ok.RecoveredCount != nil {
				base = fmt.Sprintf("%s, recovered %d conversation(s)", base, *ok.RecoveredCount)
			}
			if ok.ProcessedUsers != nil {
				base = fmt.Sprintf("%s, %d user(s) processed", base, *ok.ProcessedUsers)
			}
		}
		return base
	}
}

func resultMap(result *entity.JobResult) map[string]interface{} {
	out := make(map[string]interface{})
	if result.Ok != nil {
		ok := map[string]interface{}{}
		if result.Ok.ConversationId != nil {
			ok["conversation_id"] = result.Ok.ConversationId.String()
		}
		if result.Ok.UserId != nil {
			ok["user_id"] = result.Ok.UserId.String()
		}
		if len(result.Ok.StageDurations) > 0 {
			ok["stage_durations_ms"] = result.Ok.StageDurations
		}
		if len(result.Ok.FailedStages) > 0 {
			ok["failed_stages"] = result.Ok.FailedStages
		}
		if result.Ok.RecoveredCount != nil {
			ok["recovered_count"] = *result.Ok.RecoveredCount
		}
		if result.Ok.ProcessedUsers != nil {
			ok["processed_users"] = *result.Ok.ProcessedUsers
		}
		out["ok"] = ok
	}
	if result.Err != nil {
		out["err"] = map[string]interface{}{
			"kind":    result.Err.Kind,
			"stage":   result.Err.Stage,
			"message": result.Err.Message,
		}
	}
	return out
}
