package agent

import (
	"context"
	"testing"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/pkg/logger"
	"companion-game-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }
func (noopLogger) GetLogs(string, int, int) ([]logger.LogEntry, error) {
	return nil, nil
}
func (noopLogger) GetLogById(string) (*logger.LogEntry, error) { return nil, nil }

// recordingLogger captures warnings so tests can assert on them.
type recordingLogger struct {
	noopLogger
	warnings []map[string]interface{}
}

func (l *recordingLogger) Warn(_ string, _ string, details map[string]interface{}) {
	l.warnings = append(l.warnings, details)
}

type fakePromptRepo struct {
	current *entity.ReadyPrompt
	err     error
	calls   int
}

func (r *fakePromptRepo) GetCurrent(_ context.Context, _ uuid.UUID, _ entity.Platform) (*entity.ReadyPrompt, error) {
	r.calls++
	return r.current, r.err
}

func (r *fakePromptRepo) SetCurrent(context.Context, *entity.ReadyPrompt) error { return nil }

func (r *fakePromptRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.ReadyPrompt, error) {
	return nil, nil
}

type fakeFactRepo struct{ facts []*entity.UserFact }

func (r *fakeFactRepo) Upsert(context.Context, *entity.UserFact) error { return nil }
func (r *fakeFactRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.UserFact, error) {
	return r.facts, nil
}
func (r *fakeFactRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	return int64(len(r.facts)), nil
}

type fakeEmotionalRepo struct{ state *entity.EmotionalState }

func (r *fakeEmotionalRepo) GetByUserId(context.Context, uuid.UUID) (*entity.EmotionalState, error) {
	return r.state, nil
}
func (r *fakeEmotionalRepo) Save(context.Context, *entity.EmotionalState) error { return nil }

type fakeGameRepo struct{ state *entity.GameState }

func (r *fakeGameRepo) GetByUserId(context.Context, uuid.UUID) (*entity.GameState, error) {
	return r.state, nil
}
func (r *fakeGameRepo) Save(context.Context, *entity.GameState) error { return nil }

func testLegacyBuilder(facts *fakeFactRepo) *LegacyPromptBuilder {
	return NewLegacyPromptBuilder(facts, &fakeEmotionalRepo{}, &fakeGameRepo{})
}

func newTestLoader(enabled bool, percent int, prompts *fakePromptRepo) *ReadyPromptLoader {
	return NewReadyPromptLoader(enabled, percent, prompts, nil, testLegacyBuilder(&fakeFactRepo{}), noopLogger{})
}

func TestLoadDisabledFallsBackToLegacy(t *testing.T) {
	prompts := &fakePromptRepo{current: &entity.ReadyPrompt{PromptText: "stored"}}
	loader := newTestLoader(false, 100, prompts)

	text := loader.Load(context.Background(), uuid.New(), entity.PlatformText)

	assert.Contains(t, text, "# Identity")
	assert.Zero(t, prompts.calls, "disabled loader must not touch the prompt store")
}

func TestLoadZeroRolloutFallsBackToLegacy(t *testing.T) {
	prompts := &fakePromptRepo{current: &entity.ReadyPrompt{PromptText: "stored"}}
	loader := newTestLoader(true, 0, prompts)

	text := loader.Load(context.Background(), uuid.New(), entity.PlatformText)

	assert.Contains(t, text, "# Identity")
	assert.Zero(t, prompts.calls)
}

func TestLoadReturnsStoredPromptVerbatim(t *testing.T) {
	stored := "# Identity\nexact stored bytes, including  odd   spacing\n"
	prompts := &fakePromptRepo{current: &entity.ReadyPrompt{
		PromptText:      stored,
		PipelineVersion: "v2",
		TokenCount:      12,
	}}
	loader := newTestLoader(true, 100, prompts)

	text := loader.Load(context.Background(), uuid.New(), entity.PlatformText)

	assert.Equal(t, stored, text)
}

func TestLoadCachesInProcess(t *testing.T) {
	prompts := &fakePromptRepo{current: &entity.ReadyPrompt{PromptText: "stored"}}
	loader := newTestLoader(true, 100, prompts)
	userId := uuid.New()

	first := loader.Load(context.Background(), userId, entity.PlatformText)
	second := loader.Load(context.Background(), userId, entity.PlatformText)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, prompts.calls, "second load must hit the in-process cache")
}

func TestLoadCacheIsPerPlatform(t *testing.T) {
	prompts := &fakePromptRepo{current: &entity.ReadyPrompt{PromptText: "stored"}}
	loader := newTestLoader(true, 100, prompts)
	userId := uuid.New()

	loader.Load(context.Background(), userId, entity.PlatformText)
	loader.Load(context.Background(), userId, entity.PlatformVoice)

	assert.Equal(t, 2, prompts.calls)
}

func TestLoadMissingPromptFallsBackToLegacy(t *testing.T) {
	facts := &fakeFactRepo{facts: []*entity.UserFact{
		{Category: entity.FactCategoryBiography, Content: "Lives in Lisbon"},
		{Category: entity.FactCategoryInnerThought, Content: "private"},
	}}
	loader := NewReadyPromptLoader(true, 100, &fakePromptRepo{}, nil, testLegacyBuilder(facts), noopLogger{})

	text := loader.Load(context.Background(), uuid.New(), entity.PlatformText)

	assert.Contains(t, text, "Lives in Lisbon")
	assert.NotContains(t, text, "private")
}

func TestLoadMissingPromptWarnsWithUserId(t *testing.T) {
	log := &recordingLogger{}
	loader := NewReadyPromptLoader(true, 100, &fakePromptRepo{}, nil, testLegacyBuilder(&fakeFactRepo{}), log)
	userId := uuid.New()

	loader.Load(context.Background(), userId, entity.PlatformText)

	require.Len(t, log.warnings, 1)
	assert.Equal(t, userId.String(), log.warnings[0]["user_id"])
}

func TestLoadLookupErrorFallsBackToLegacy(t *testing.T) {
	prompts := &fakePromptRepo{err: assert.AnError}
	loader := newTestLoader(true, 100, prompts)

	text := loader.Load(context.Background(), uuid.New(), entity.PlatformText)

	require.NotEmpty(t, text)
	assert.Contains(t, text, "# Identity")
}

func TestInvalidateDropsLocalCache(t *testing.T) {
	prompts := &fakePromptRepo{current: &entity.ReadyPrompt{PromptText: "stored"}}
	loader := newTestLoader(true, 100, prompts)
	userId := uuid.New()

	loader.Load(context.Background(), userId, entity.PlatformText)
	loader.Invalidate(context.Background(), userId, entity.PlatformText)
	loader.Load(context.Background(), userId, entity.PlatformText)

	assert.Equal(t, 2, prompts.calls)
}

func TestLegacyBuilderVoiceStyle(t *testing.T) {
	builder := testLegacyBuilder(&fakeFactRepo{})

	text := builder.Build(context.Background(), uuid.New(), entity.PlatformVoice)

	assert.Contains(t, text, "voice call")
	assert.NotContains(t, text, "text chat")
}
