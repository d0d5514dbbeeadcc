package service

import (
	"context"
	"testing"
	"time"

	"companion-game-be/internal/dto"
	"companion-game-be/internal/entity"
	"companion-game-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTriggerService(conversations *fakeConversationRepo, users *fakeUserRepo, jobs *fakeJobLedger) IPipelineService {
	return NewPipelineService(nil, nil, jobs, conversations, users, &fakeMailer{}, "", noopLogger{})
}

func seedPlayer(users *fakeUserRepo) *entity.User {
	player := &entity.User{
		Id:     uuid.New(),
		Email:  "player@example.com",
		Role:   entity.UserRolePlayer,
		Status: entity.UserStatusActive,
	}
	users.users = append(users.users, player)
	return player
}

func TestTriggerUnknownUser(t *testing.T) {
	svc := newTriggerService(newFakeConversationRepo(), &fakeUserRepo{}, newFakeJobLedger())

	_, err := svc.Trigger(context.Background(), uuid.NewString(), &dto.TriggerPipelineRequest{})

	assert.ErrorIs(t, err, contract.ErrUserNotFound)
}

func TestTriggerRejectsMalformedUserId(t *testing.T) {
	svc := newTriggerService(newFakeConversationRepo(), &fakeUserRepo{}, newFakeJobLedger())

	_, err := svc.Trigger(context.Background(), "not-a-uuid", &dto.TriggerPipelineRequest{})

	assert.Error(t, err)
}

func TestTriggerUserWithoutConversations(t *testing.T) {
	users := &fakeUserRepo{}
	player := seedPlayer(users)
	svc := newTriggerService(newFakeConversationRepo(), users, newFakeJobLedger())

	_, err := svc.Trigger(context.Background(), player.Id.String(), &dto.TriggerPipelineRequest{})

	assert.ErrorIs(t, err, contract.ErrConversationNotFound)
}

func TestTriggerRejectsForeignConversation(t *testing.T) {
	users := &fakeUserRepo{}
	player := seedPlayer(users)

	conversations := newFakeConversationRepo()
	other := conversations.add(entity.ConversationStatusPending, time.Now().UTC())

	svc := newTriggerService(conversations, users, newFakeJobLedger())
	_, err := svc.Trigger(context.Background(), player.Id.String(), &dto.TriggerPipelineRequest{
		ConversationId: other.Id.String(),
	})

	assert.ErrorIs(t, err, contract.ErrConversationNotFound)
}

func TestTriggerAdvisoryDedup(t *testing.T) {
	users := &fakeUserRepo{}
	player := seedPlayer(users)

	conversations := newFakeConversationRepo()
	conversation := conversations.add(entity.ConversationStatusPending, time.Now().UTC())
	conversation.UserId = player.Id

	jobs := newFakeJobLedger()
	jobs.running[entity.JobNamePostProcessing] = true

	resp, err := newTriggerService(conversations, users, jobs).Trigger(
		context.Background(), player.Id.String(), &dto.TriggerPipelineRequest{
			ConversationId: conversation.Id.String(),
		})
	require.NoError(t, err)

	assert.True(t, resp.AlreadyRunning)
	assert.Equal(t, "rejected", resp.Status)
}

func TestTriggerDefaultsToLatestConversation(t *testing.T) {
	users := &fakeUserRepo{}
	player := seedPlayer(users)

	conversations := newFakeConversationRepo()
	older := conversations.add(entity.ConversationStatusProcessed, time.Now().UTC().Add(-2*time.Hour))
	older.UserId = player.Id
	latest := conversations.add(entity.ConversationStatusPending, time.Now().UTC())
	latest.UserId = player.Id

	// The running guard short-circuits before the orchestrator; the request
	// reaching it proves the latest conversation resolved.
	jobs := newFakeJobLedger()
	jobs.running[entity.JobNamePostProcessing] = true

	resp, err := newTriggerService(conversations, users, jobs).Trigger(
		context.Background(), player.Id.String(), &dto.TriggerPipelineRequest{})
	require.NoError(t, err)
	assert.True(t, resp.AlreadyRunning)
}

func TestUserHistoryPaginates(t *testing.T) {
	users := &fakeUserRepo{}
	player := seedPlayer(users)

	jobs := newFakeJobLedger()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		exec, err := jobs.StartExecution(ctx, entity.JobNamePostProcessing)
		require.NoError(t, err)
		require.NoError(t, jobs.AttachUser(ctx, exec.Id, player.Id))
	}
	stranger, err := jobs.StartExecution(ctx, entity.JobNamePostProcessing)
	require.NoError(t, err)
	require.NoError(t, jobs.AttachUser(ctx, stranger.Id, uuid.New()))

	svc := newTriggerService(newFakeConversationRepo(), users, jobs)
	resp, err := svc.UserHistory(ctx, player.Id.String(), &dto.UserPipelineHistoryQuery{})
	require.NoError(t, err)

	assert.Equal(t, int64(3), resp.Total)
	assert.Len(t, resp.Items, 3)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.PageSize)
}

func TestUserHistoryUnknownUser(t *testing.T) {
	svc := newTriggerService(newFakeConversationRepo(), &fakeUserRepo{}, newFakeJobLedger())

	_, err := svc.UserHistory(context.Background(), uuid.NewString(), &dto.UserPipelineHistoryQuery{})

	assert.ErrorIs(t, err, contract.ErrUserNotFound)
}

func TestHistoryFiltersAndDefaults(t *testing.T) {
	jobs := newFakeJobLedger()
	ctx := context.Background()

	recoveryExec, _ := jobs.StartExecution(ctx, entity.JobNameRecovery)
	count := 2
	_, err := jobs.CompleteExecution(ctx, recoveryExec.Id, &entity.JobResult{
		Ok: &entity.JobMetrics{RecoveredCount: &count},
	})
	require.NoError(t, err)
	_, err = jobs.StartExecution(ctx, entity.JobNamePostProcessing)
	require.NoError(t, err)

	svc := newTriggerService(newFakeConversationRepo(), &fakeUserRepo{}, jobs)

	all, err := svc.History(ctx, &dto.PipelineHistoryQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := svc.History(ctx, &dto.PipelineHistoryQuery{JobName: string(entity.JobNameRecovery)})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, string(entity.JobNameRecovery), filtered[0].JobName)
	assert.Contains(t, filtered[0].Summary, "recovered 2 conversation(s)")
	require.NotNil(t, filtered[0].Result)
	assert.Contains(t, filtered[0].Result, "ok")
}

func TestSummarizeExecution(t *testing.T) {
	started := time.Date(2026, 4, 1, 9, 15, 30, 0, time.UTC)
	duration := int64(820)
	processed := 4

	cases := []struct {
		name string
		exec *entity.JobExecution
		want string
	}{
		{
			name: "running",
			exec: &entity.JobExecution{
				JobName: entity.JobNamePostProcessing, Status: entity.JobStatusRunning, StartedAt: started,
			},
			want: "post_processing running since 09:15:30",
		},
		{
			name: "failed at stage",
			exec: &entity.JobExecution{
				JobName: entity.JobNamePostProcessing, Status: entity.JobStatusFailed,
				Result: &entity.JobResult{Err: &entity.JobError{
					Kind: "stage_failure", Stage: "extraction", Message: "empty transcript",
				}},
			},
			want: "post_processing failed at extraction: empty transcript",
		},
		{
			name: "failed without stage",
			exec: &entity.JobExecution{
				JobName: entity.JobNameRecovery, Status: entity.JobStatusFailed,
				Result: &entity.JobResult{Err: &entity.JobError{
					Kind: "sweep_failure", Message: "db down",
				}},
			},
			want: "recovery failed: db down",
		},
		{
			name: "completed with skipped stages",
			exec: &entity.JobExecution{
				JobName: entity.JobNamePostProcessing, Status: entity.JobStatusCompleted, DurationMS: &duration,
				Result: &entity.JobResult{Ok: &entity.JobMetrics{
					FailedStages: []string{"life_sim"},
				}},
			},
			want: "post_processing completed in 820ms (1 stage(s) skipped)",
		},
		{
			name: "psyche batch",
			exec: &entity.JobExecution{
				JobName: entity.JobNamePsycheBatch, Status: entity.JobStatusCompleted, DurationMS: &duration,
				Result: &entity.JobResult{Ok: &entity.JobMetrics{ProcessedUsers: &processed}},
			},
			want: "psyche_batch completed in 820ms, 4 user(s) processed",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, summarizeExecution(tc.exec))
		})
	}
}
