package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/pkg/logger"
	"companion-game-be/internal/repository/contract"
	"companion-game-be/internal/repository/specification"
	"companion-game-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fakes ---

type fakeStage struct {
	name     StageName
	critical bool
	err      error
	runLog   *[]StageName
}

func (s *fakeStage) Name() StageName { return s.name }
func (s *fakeStage) Critical() bool  { return s.critical }
func (s *fakeStage) Run(_ context.Context, _ *Context, _ unitofwork.UnitOfWork) error {
	*s.runLog = append(*s.runLog, s.name)
	return s.err
}

type fakeUow struct {
	began      bool
	committed  bool
	rolledBack bool
}

func (u *fakeUow) Begin(context.Context) error { u.began = true; return nil }
func (u *fakeUow) Commit() error               { u.committed = true; return nil }
func (u *fakeUow) Rollback() error             { u.rolledBack = true; return nil }

func (u *fakeUow) UserRepository() contract.UserRepository                 { return nil }
func (u *fakeUow) ConversationRepository() contract.ConversationRepository { return nil }
func (u *fakeUow) ReadyPromptRepository() contract.ReadyPromptRepository   { return nil }
func (u *fakeUow) UserFactRepository() contract.UserFactRepository         { return nil }
func (u *fakeUow) PersonaStateRepository() contract.PersonaStateRepository { return nil }
func (u *fakeUow) EmotionalStateRepository() contract.EmotionalStateRepository {
	return nil
}
func (u *fakeUow) GameStateRepository() contract.GameStateRepository { return nil }
func (u *fakeUow) ConflictRepository() contract.ConflictRepository   { return nil }
func (u *fakeUow) TouchpointRepository() contract.TouchpointRepository {
	return nil
}
func (u *fakeUow) ConversationSummaryRepository() contract.ConversationSummaryRepository {
	return nil
}

type fakeUowFactory struct {
	last *fakeUow
}

func (f *fakeUowFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	f.last = &fakeUow{}
	return f.last
}

type fakeConversationRepo struct {
	conversations map[uuid.UUID]*entity.Conversation
	updates       []entity.ConversationStatus
}

func newFakeConversationRepo(items ...*entity.Conversation) *fakeConversationRepo {
	r := &fakeConversationRepo{conversations: make(map[uuid.UUID]*entity.Conversation)}
	for _, c := range items {
		r.conversations[c.Id] = c
	}
	return r
}

func (r *fakeConversationRepo) Create(_ context.Context, c *entity.Conversation) error {
	r.conversations[c.Id] = c
	return nil
}

func (r *fakeConversationRepo) Update(_ context.Context, c *entity.Conversation) error {
	r.conversations[c.Id] = c
	r.updates = append(r.updates, c.Status)
	return nil
}

func (r *fakeConversationRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			return r.conversations[byID.ID], nil
		}
	}
	return nil, nil
}

func (r *fakeConversationRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.Conversation, error) {
	var out []*entity.Conversation
	for _, c := range r.conversations {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeConversationRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	return int64(len(r.conversations)), nil
}

func (r *fakeConversationRepo) MarkProcessing(_ context.Context, id uuid.UUID) error {
	c, ok := r.conversations[id]
	if !ok {
		return contract.ErrConversationNotFound
	}
	c.Status = entity.ConversationStatusProcessing
	c.ProcessingAttempts++
	return nil
}

func (r *fakeConversationRepo) ResetToPending(_ context.Context, id uuid.UUID) error {
	c, ok := r.conversations[id]
	if !ok {
		return contract.ErrConversationNotFound
	}
	c.Status = entity.ConversationStatusPending
	c.ProcessingAttempts++
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo(items ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
	for _, u := range items {
		r.users[u.Id] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *entity.User) error { r.users[u.Id] = u; return nil }
func (r *fakeUserRepo) Update(_ context.Context, u *entity.User) error { r.users[u.Id] = u; return nil }
func (r *fakeUserRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.User, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			return r.users[byID.ID], nil
		}
	}
	return nil, nil
}
func (r *fakeUserRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.User, error) {
	return nil, nil
}
func (r *fakeUserRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	return 0, nil
}

// fakeLedger finalizes rows at most once, mirroring the real repository.
type fakeLedger struct {
	rows map[uuid.UUID]*entity.JobExecution
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: make(map[uuid.UUID]*entity.JobExecution)}
}

func (l *fakeLedger) StartExecution(_ context.Context, name entity.JobName) (*entity.JobExecution, error) {
	exec := &entity.JobExecution{
		Id:        uuid.New(),
		JobName:   name,
		Status:    entity.JobStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	l.rows[exec.Id] = exec
	return exec, nil
}

func (l *fakeLedger) finalize(id uuid.UUID, status entity.JobStatus, result *entity.JobResult) (*entity.JobExecution, error) {
	exec, ok := l.rows[id]
	if !ok {
		return nil, contract.ErrJobExecutionNotFound
	}
	if exec.CompletedAt != nil {
		return exec, nil
	}
	now := time.Now().UTC()
	duration := now.Sub(exec.StartedAt).Milliseconds()
	exec.Status = status
	exec.CompletedAt = &now
	exec.DurationMS = &duration
	exec.Result = result
	return exec, nil
}

func (l *fakeLedger) CompleteExecution(_ context.Context, id uuid.UUID, result *entity.JobResult) (*entity.JobExecution, error) {
	return l.finalize(id, entity.JobStatusCompleted, result)
}

func (l *fakeLedger) FailExecution(_ context.Context, id uuid.UUID, result *entity.JobResult) (*entity.JobExecution, error) {
	return l.finalize(id, entity.JobStatusFailed, result)
}

func (l *fakeLedger) AttachUser(_ context.Context, id uuid.UUID, userId uuid.UUID) error {
	if exec, ok := l.rows[id]; ok {
		exec.UserId = &userId
	}
	return nil
}

func (l *fakeLedger) GetLatestByJobName(context.Context, entity.JobName) (*entity.JobExecution, error) {
	return nil, nil
}

func (l *fakeLedger) GetUserExecutions(_ context.Context, userId uuid.UUID, _, _ int) ([]*entity.JobExecution, int64, error) {
	var out []*entity.JobExecution
	for _, exec := range l.rows {
		if exec.UserId != nil && *exec.UserId == userId {
			out = append(out, exec)
		}
	}
	return out, int64(len(out)), nil
}

func (l *fakeLedger) GetRecentExecutions(context.Context, *entity.JobName, *entity.JobStatus, int) ([]*entity.JobExecution, error) {
	return nil, nil
}

func (l *fakeLedger) HasRecentExecution(_ context.Context, name entity.JobName, window time.Duration) (bool, error) {
	since := time.Now().UTC().Add(-window)
	for _, exec := range l.rows {
		if exec.JobName == name && exec.CompletedAt != nil && exec.CompletedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (l *fakeLedger) HasRunning(_ context.Context, name entity.JobName) (bool, error) {
	for _, exec := range l.rows {
		if exec.JobName == name && exec.Status == entity.JobStatusRunning {
			return true, nil
		}
	}
	return false, nil
}

// --- Helpers ---

func testConversation(userId uuid.UUID) *entity.Conversation {
	return &entity.Conversation{
		Id:       uuid.New(),
		UserId:   userId,
		Platform: entity.PlatformText,
		Status:   entity.ConversationStatusPending,
		Messages: []entity.ConversationMessage{
			{Role: entity.MessageRoleUser, Content: "hey", SentAt: time.Now()},
			{Role: entity.MessageRolePersona, Content: "hi!", SentAt: time.Now()},
		},
	}
}

func testOrchestrator(stages []Stage, convRepo *fakeConversationRepo, userRepo *fakeUserRepo, ledger *fakeLedger) (*Orchestrator, *fakeUowFactory) {
	factory := &fakeUowFactory{}
	log := logger.NewZapLogger("/tmp/pipeline_test.log", false)
	o := NewOrchestrator(entity.JobNamePostProcessing, stages, factory, convRepo, userRepo, ledger, nil, log)
	return o, factory
}

// --- Tests ---

func TestProcessRunsStagesInOrder(t *testing.T) {
	user := &entity.User{Id: uuid.New(), Status: entity.UserStatusActive}
	conversation := testConversation(user.Id)

	var runLog []StageName
	stageList := []Stage{
		&fakeStage{name: StageExtraction, critical: true, runLog: &runLog},
		&fakeStage{name: StageSummary, runLog: &runLog},
		&fakeStage{name: StagePromptBuilder, critical: true, runLog: &runLog},
	}

	ledger := newFakeLedger()
	o, factory := testOrchestrator(stageList, newFakeConversationRepo(conversation), newFakeUserRepo(user), ledger)

	exec, err := o.Process(context.Background(), conversation.Id)
	require.NoError(t, err)

	assert.Equal(t, []StageName{StageExtraction, StageSummary, StagePromptBuilder}, runLog)
	assert.Equal(t, entity.JobStatusCompleted, exec.Status)
	assert.Equal(t, entity.ConversationStatusProcessed, conversation.Status)
	assert.NotNil(t, conversation.ProcessedAt)
	assert.True(t, factory.last.committed)
	assert.False(t, factory.last.rolledBack)

	require.NotNil(t, exec.Result.Ok)
	assert.Len(t, exec.Result.Ok.StageDurations, 3)
	assert.Empty(t, exec.Result.Ok.FailedStages)
}

func TestProcessContinuesPastNonCriticalFailure(t *testing.T) {
	user := &entity.User{Id: uuid.New(), Status: entity.UserStatusActive}
	conversation := testConversation(user.Id)

	var runLog []StageName
	stageList := []Stage{
		&fakeStage{name: StageExtraction, critical: true, runLog: &runLog},
		&fakeStage{name: StageEmotional, err: errors.New("model timeout"), runLog: &runLog},
		&fakeStage{name: StagePromptBuilder, critical: true, runLog: &runLog},
	}

	ledger := newFakeLedger()
	o, factory := testOrchestrator(stageList, newFakeConversationRepo(conversation), newFakeUserRepo(user), ledger)

	exec, err := o.Process(context.Background(), conversation.Id)
	require.NoError(t, err)

	assert.Equal(t, []StageName{StageExtraction, StageEmotional, StagePromptBuilder}, runLog)
	assert.Equal(t, entity.JobStatusCompleted, exec.Status)
	assert.Equal(t, []string{string(StageEmotional)}, exec.Result.Ok.FailedStages)
	assert.True(t, factory.last.committed)
}

func TestProcessAbortsOnCriticalFailure(t *testing.T) {
	user := &entity.User{Id: uuid.New(), Status: entity.UserStatusActive}
	conversation := testConversation(user.Id)

	var runLog []StageName
	stageList := []Stage{
		&fakeStage{name: StageExtraction, critical: true, err: errors.New("llm unreachable"), runLog: &runLog},
		&fakeStage{name: StageSummary, runLog: &runLog},
		&fakeStage{name: StagePromptBuilder, critical: true, runLog: &runLog},
	}

	ledger := newFakeLedger()
	o, factory := testOrchestrator(stageList, newFakeConversationRepo(conversation), newFakeUserRepo(user), ledger)

	exec, err := o.Process(context.Background(), conversation.Id)
	require.Error(t, err)

	// Nothing after the critical failure ran.
	assert.Equal(t, []StageName{StageExtraction}, runLog)
	assert.Equal(t, entity.JobStatusFailed, exec.Status)
	assert.Equal(t, entity.ConversationStatusFailed, conversation.Status)
	assert.True(t, factory.last.rolledBack)
	assert.False(t, factory.last.committed)

	require.NotNil(t, exec.Result.Err)
	assert.Equal(t, "stage_failure", exec.Result.Err.Kind)
	assert.Equal(t, string(StageExtraction), exec.Result.Err.Stage)
}

func TestProcessAlreadyProcessedIsNoOp(t *testing.T) {
	user := &entity.User{Id: uuid.New(), Status: entity.UserStatusActive}
	conversation := testConversation(user.Id)
	conversation.Status = entity.ConversationStatusProcessed

	var runLog []StageName
	stageList := []Stage{
		&fakeStage{name: StageExtraction, critical: true, runLog: &runLog},
	}

	ledger := newFakeLedger()
	o, factory := testOrchestrator(stageList, newFakeConversationRepo(conversation), newFakeUserRepo(user), ledger)

	exec, err := o.Process(context.Background(), conversation.Id)
	require.NoError(t, err)

	assert.Empty(t, runLog)
	assert.Equal(t, entity.JobStatusCompleted, exec.Status)
	assert.Equal(t, 0, conversation.ProcessingAttempts)
	assert.Nil(t, factory.last)
}

func TestProcessRejectsConcurrentRun(t *testing.T) {
	user := &entity.User{Id: uuid.New(), Status: entity.UserStatusActive}
	conversation := testConversation(user.Id)
	conversation.Status = entity.ConversationStatusProcessing

	ledger := newFakeLedger()
	o, _ := testOrchestrator(nil, newFakeConversationRepo(conversation), newFakeUserRepo(user), ledger)

	exec, err := o.Process(context.Background(), conversation.Id)
	require.Error(t, err)
	assert.Equal(t, entity.JobStatusFailed, exec.Status)
	assert.Equal(t, "already_processing", exec.Result.Err.Kind)
	// A rejected run never flips the conversation to failed.
	assert.Equal(t, entity.ConversationStatusProcessing, conversation.Status)
}

func TestProcessUnknownConversation(t *testing.T) {
	ledger := newFakeLedger()
	o, _ := testOrchestrator(nil, newFakeConversationRepo(), newFakeUserRepo(), ledger)

	exec, err := o.Process(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, entity.JobStatusFailed, exec.Status)
	assert.Equal(t, "not_found", exec.Result.Err.Kind)
}

func TestProcessEmptyConversationCompletesWithoutStages(t *testing.T) {
	user := &entity.User{Id: uuid.New(), Status: entity.UserStatusActive}
	conversation := testConversation(user.Id)
	conversation.Messages = nil

	var runLog []StageName
	stageList := []Stage{
		&fakeStage{name: StageExtraction, critical: true, runLog: &runLog},
	}

	ledger := newFakeLedger()
	o, _ := testOrchestrator(stageList, newFakeConversationRepo(conversation), newFakeUserRepo(user), ledger)

	exec, err := o.Process(context.Background(), conversation.Id)
	require.NoError(t, err)

	assert.Empty(t, runLog)
	assert.Equal(t, entity.JobStatusCompleted, exec.Status)
	assert.Equal(t, entity.ConversationStatusProcessed, conversation.Status)
}

func TestLedgerFinalizesAtMostOnce(t *testing.T) {
	ledger := newFakeLedger()
	exec, err := ledger.StartExecution(context.Background(), entity.JobNamePostProcessing)
	require.NoError(t, err)

	first, err := ledger.CompleteExecution(context.Background(), exec.Id, &entity.JobResult{Ok: &entity.JobMetrics{}})
	require.NoError(t, err)
	firstCompletedAt := *first.CompletedAt

	// A second finalize must not overwrite status or completed_at.
	second, err := ledger.FailExecution(context.Background(), exec.Id, &entity.JobResult{
		Err: &entity.JobError{Kind: "late", Message: "too late"},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, second.Status)
	assert.Equal(t, firstCompletedAt, *second.CompletedAt)
}
