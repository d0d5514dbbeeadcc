package stages

import (
	"context"
	"strings"
	"testing"
	"time"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/repository/contract"
	"companion-game-be/internal/repository/specification"
	"companion-game-be/internal/repository/unitofwork"
	"companion-game-be/pkg/llm"
	"companion-game-be/pkg/pipeline"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fakes ---

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	if len(history) > 0 {
		f.prompts = append(f.prompts, history[len(history)-1].Content)
	}
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

type fakeEmbedder struct {
	fail bool
}

func (f *fakeEmbedder) Generate(_ context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, assert.AnError
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

type memFactRepo struct {
	facts []*entity.UserFact
}

func (r *memFactRepo) Upsert(_ context.Context, fact *entity.UserFact) error {
	for _, existing := range r.facts {
		if existing.UserId == fact.UserId && existing.ContentHash == fact.ContentHash {
			return nil
		}
	}
	if fact.Id == uuid.Nil {
		fact.Id = uuid.New()
	}
	r.facts = append(r.facts, fact)
	return nil
}

func (r *memFactRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.UserFact, error) {
	return r.facts, nil
}

func (r *memFactRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	return int64(len(r.facts)), nil
}

type memPromptRepo struct {
	prompts []*entity.ReadyPrompt
}

func (r *memPromptRepo) GetCurrent(_ context.Context, userId uuid.UUID, platform entity.Platform) (*entity.ReadyPrompt, error) {
	for _, p := range r.prompts {
		if p.UserId == userId && p.Platform == platform && p.IsCurrent {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memPromptRepo) SetCurrent(_ context.Context, prompt *entity.ReadyPrompt) error {
	for _, p := range r.prompts {
		if p.UserId == prompt.UserId && p.Platform == prompt.Platform {
			p.IsCurrent = false
		}
	}
	prompt.Id = uuid.New()
	prompt.IsCurrent = true
	r.prompts = append(r.prompts, prompt)
	return nil
}

func (r *memPromptRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.ReadyPrompt, error) {
	return r.prompts, nil
}

type memPersonaRepo struct{ state *entity.PersonaState }

func (r *memPersonaRepo) GetByUserId(context.Context, uuid.UUID) (*entity.PersonaState, error) {
	return r.state, nil
}
func (r *memPersonaRepo) Save(_ context.Context, s *entity.PersonaState) error {
	r.state = s
	return nil
}

type memEmotionalRepo struct{ state *entity.EmotionalState }

func (r *memEmotionalRepo) GetByUserId(context.Context, uuid.UUID) (*entity.EmotionalState, error) {
	return r.state, nil
}
func (r *memEmotionalRepo) Save(_ context.Context, s *entity.EmotionalState) error {
	r.state = s
	return nil
}

type memGameRepo struct{ state *entity.GameState }

func (r *memGameRepo) GetByUserId(context.Context, uuid.UUID) (*entity.GameState, error) {
	return r.state, nil
}
func (r *memGameRepo) Save(_ context.Context, s *entity.GameState) error {
	r.state = s
	return nil
}

type memSummaryRepo struct{ summaries []*entity.ConversationSummary }

func (r *memSummaryRepo) Upsert(_ context.Context, s *entity.ConversationSummary) error {
	for i, existing := range r.summaries {
		if existing.ConversationId == s.ConversationId {
			r.summaries[i] = s
			return nil
		}
	}
	r.summaries = append(r.summaries, s)
	return nil
}

func (r *memSummaryRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.ConversationSummary, error) {
	return r.summaries, nil
}

type memTouchpointRepo struct{ touchpoints []*entity.Touchpoint }

func (r *memTouchpointRepo) Create(_ context.Context, t *entity.Touchpoint) error {
	r.touchpoints = append(r.touchpoints, t)
	return nil
}
func (r *memTouchpointRepo) Update(context.Context, *entity.Touchpoint) error { return nil }
func (r *memTouchpointRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.Touchpoint, error) {
	return r.touchpoints, nil
}
func (r *memTouchpointRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	return int64(len(r.touchpoints)), nil
}

type stubUow struct {
	facts       *memFactRepo
	prompts     *memPromptRepo
	persona     *memPersonaRepo
	emotional   *memEmotionalRepo
	game        *memGameRepo
	summaries   *memSummaryRepo
	touchpoints *memTouchpointRepo
}

func newStubUow() *stubUow {
	return &stubUow{
		facts:       &memFactRepo{},
		prompts:     &memPromptRepo{},
		persona:     &memPersonaRepo{},
		emotional:   &memEmotionalRepo{},
		game:        &memGameRepo{},
		summaries:   &memSummaryRepo{},
		touchpoints: &memTouchpointRepo{},
	}
}

func (u *stubUow) Begin(context.Context) error { return nil }
func (u *stubUow) Commit() error               { return nil }
func (u *stubUow) Rollback() error             { return nil }

func (u *stubUow) UserRepository() contract.UserRepository                 { return nil }
func (u *stubUow) ConversationRepository() contract.ConversationRepository { return nil }
func (u *stubUow) ReadyPromptRepository() contract.ReadyPromptRepository   { return u.prompts }
func (u *stubUow) UserFactRepository() contract.UserFactRepository         { return u.facts }
func (u *stubUow) PersonaStateRepository() contract.PersonaStateRepository { return u.persona }
func (u *stubUow) EmotionalStateRepository() contract.EmotionalStateRepository {
	return u.emotional
}
func (u *stubUow) GameStateRepository() contract.GameStateRepository { return u.game }
func (u *stubUow) ConflictRepository() contract.ConflictRepository   { return nil }
func (u *stubUow) TouchpointRepository() contract.TouchpointRepository {
	return u.touchpoints
}
func (u *stubUow) ConversationSummaryRepository() contract.ConversationSummaryRepository {
	return u.summaries
}

var _ unitofwork.UnitOfWork = (*stubUow)(nil)

func testContext() *pipeline.Context {
	user := &entity.User{Id: uuid.New(), Status: entity.UserStatusActive}
	conversation := &entity.Conversation{
		Id:       uuid.New(),
		UserId:   user.Id,
		Platform: entity.PlatformText,
		Status:   entity.ConversationStatusProcessing,
		Messages: []entity.ConversationMessage{
			{Role: entity.MessageRoleUser, Content: "I moved to Lisbon last month", SentAt: time.Now()},
			{Role: entity.MessageRolePersona, Content: "how do you like it?", SentAt: time.Now()},
		},
	}
	return pipeline.NewContext(conversation, user)
}

// --- Stage list shape ---

func TestFullPipelineShape(t *testing.T) {
	provider := &fakeLLM{}
	list := FullPipeline(provider, &fakeEmbedder{}, "v2")

	require.Len(t, list, 9)
	assert.Equal(t, pipeline.StageExtraction, list[0].Name())
	assert.Equal(t, pipeline.StagePromptBuilder, list[len(list)-1].Name())

	// Only extraction and prompt_builder may abort a run.
	for _, stage := range list {
		critical := stage.Name() == pipeline.StageExtraction || stage.Name() == pipeline.StagePromptBuilder
		assert.Equal(t, critical, stage.Critical(), "stage %s", stage.Name())
	}
}

func TestPsycheBatchShape(t *testing.T) {
	list := PsycheBatch(&fakeLLM{}, "v2")

	require.Len(t, list, 3)
	assert.Equal(t, pipeline.StagePromptBuilder, list[len(list)-1].Name())
}

// --- Extraction ---

func TestExtractionStageParsesFacts(t *testing.T) {
	provider := &fakeLLM{response: `{
		"facts": [
			{"category": "biography", "content": "Lives in Lisbon", "confidence": 0.9},
			{"category": "nonsense", "content": "dropped", "confidence": 1.0},
			{"category": "preference", "content": "  ", "confidence": 1.0}
		],
		"open_threads": ["how the move is going"],
		"inner_thoughts": ["they sound excited about the change"]
	}`}

	pctx := testContext()
	err := NewExtractionStage(provider).Run(context.Background(), pctx, newStubUow())
	require.NoError(t, err)

	// One valid fact plus one thread plus one thought; malformed entries dropped.
	require.Len(t, pctx.ExtractedFacts, 3)
	assert.Equal(t, entity.FactCategoryBiography, pctx.ExtractedFacts[0].Category)
	assert.Equal(t, "Lives in Lisbon", pctx.ExtractedFacts[0].Content)
	assert.NotEmpty(t, pctx.ExtractedFacts[0].ContentHash)
	assert.Equal(t, []string{"how the move is going"}, pctx.OpenThreads)
	assert.Equal(t, []string{"they sound excited about the change"}, pctx.InnerThoughts)
}

func TestExtractionStageRejectsBadJSON(t *testing.T) {
	provider := &fakeLLM{response: "sorry, I can't do that"}

	pctx := testContext()
	err := NewExtractionStage(provider).Run(context.Background(), pctx, newStubUow())
	assert.Error(t, err)
}

func TestHashFactContentNormalizes(t *testing.T) {
	a := HashFactContent("Lives in  Lisbon")
	b := HashFactContent("lives in lisbon")
	c := HashFactContent("lives in porto")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

// --- Memory update ---

func TestMemoryUpdateStageDeduplicates(t *testing.T) {
	uow := newStubUow()
	pctx := testContext()

	fact := &entity.UserFact{
		UserId:      pctx.User.Id,
		Category:    entity.FactCategoryBiography,
		Content:     "Lives in Lisbon",
		ContentHash: HashFactContent("Lives in Lisbon"),
	}
	duplicate := &entity.UserFact{
		UserId:      pctx.User.Id,
		Category:    entity.FactCategoryBiography,
		Content:     "lives in lisbon",
		ContentHash: HashFactContent("lives in lisbon"),
	}
	pctx.ExtractedFacts = []*entity.UserFact{fact, duplicate}

	err := NewMemoryUpdateStage(&fakeEmbedder{}).Run(context.Background(), pctx, uow)
	require.NoError(t, err)

	assert.Len(t, uow.facts.facts, 1)
	assert.NotEmpty(t, fact.Embedding)
	assert.Len(t, pctx.StoredFacts, 1)
}

func TestMemoryUpdateStageStoresUnembeddedFacts(t *testing.T) {
	uow := newStubUow()
	pctx := testContext()
	pctx.ExtractedFacts = []*entity.UserFact{{
		UserId:      pctx.User.Id,
		Category:    entity.FactCategoryPreference,
		Content:     "prefers tea over coffee",
		ContentHash: HashFactContent("prefers tea over coffee"),
	}}

	err := NewMemoryUpdateStage(&fakeEmbedder{fail: true}).Run(context.Background(), pctx, uow)

	// The embedding failure surfaces, but the fact is stored anyway.
	assert.Error(t, err)
	assert.Len(t, uow.facts.facts, 1)
}

// --- Life sim ---

func TestActivitySchedule(t *testing.T) {
	assert.Equal(t, "sleeping", activityAt(3))
	assert.Equal(t, "having breakfast", activityAt(8))
	assert.Equal(t, "working", activityAt(10))
	assert.Equal(t, "relaxing at home", activityAt(21))
	assert.Equal(t, "sleeping", activityAt(23))
}

func TestTickEnergyBounds(t *testing.T) {
	assert.InDelta(t, 1.0, tickEnergy(0.9, 10*time.Hour, 2), 0.001)
	assert.InDelta(t, 0.1, tickEnergy(0.12, 40*time.Hour, 12), 0.001)

	// Negative elapsed (clock skew) must not move energy.
	assert.InDelta(t, 0.5, tickEnergy(0.5, -time.Hour, 12), 0.001)
}

func TestLifeSimStageCreatesStateOnFirstRun(t *testing.T) {
	uow := newStubUow()
	pctx := testContext()

	err := NewLifeSimStage().Run(context.Background(), pctx, uow)
	require.NoError(t, err)

	require.NotNil(t, uow.persona.state)
	assert.Equal(t, pctx.User.Id, uow.persona.state.UserId)
	assert.NotEmpty(t, uow.persona.state.CurrentActivity)
	assert.Equal(t, pctx.Now, uow.persona.state.LastTickAt)
}

// --- Emotional ---

func TestEmotionalStageBlendsReadings(t *testing.T) {
	uow := newStubUow()
	uow.emotional.state = &entity.EmotionalState{
		UserId:  uuid.New(),
		Valence: 0.0,
		Arousal: 0.0,
		Psyche:  entity.PsycheTraits{Attachment: 0.5, Openness: 0.5, Playfulness: 0.5, Stability: 0.5},
	}

	provider := &fakeLLM{response: `{"valence": 1.0, "arousal": 1.0, "dominant_emotion": "joy"}`}
	pctx := testContext()

	err := NewEmotionalStage(provider).Run(context.Background(), pctx, uow)
	require.NoError(t, err)

	// 70/30 blend, never a hard overwrite.
	assert.InDelta(t, 0.3, uow.emotional.state.Valence, 0.001)
	assert.InDelta(t, 0.3, uow.emotional.state.Arousal, 0.001)
	assert.Equal(t, "joy", uow.emotional.state.DominantEmotion)
}

func TestEmotionalStageDecaysWithoutTranscript(t *testing.T) {
	uow := newStubUow()
	uow.emotional.state = &entity.EmotionalState{
		UserId:          uuid.New(),
		Valence:         0.5,
		Arousal:         0.5,
		DominantEmotion: "joy",
	}

	user := &entity.User{Id: uuid.New()}
	pctx := pipeline.NewContext(nil, user)

	err := NewEmotionalStage(&fakeLLM{}).Run(context.Background(), pctx, uow)
	require.NoError(t, err)

	assert.InDelta(t, 0.4, uow.emotional.state.Valence, 0.001)
	assert.InDelta(t, 0.4, uow.emotional.state.Arousal, 0.001)
}

// --- Game state ---

func TestLevelForScore(t *testing.T) {
	assert.Equal(t, 1, levelForScore(0))
	assert.Equal(t, 1, levelForScore(99))
	assert.Equal(t, 2, levelForScore(100))
	assert.Equal(t, 2, levelForScore(299))
	assert.Equal(t, 3, levelForScore(300))
}

func TestGameStateStageScoresDeterministically(t *testing.T) {
	uow := newStubUow()
	pctx := testContext()
	pctx.ExtractedFacts = []*entity.UserFact{{Content: "a"}, {Content: "b"}}

	err := NewGameStateStage().Run(context.Background(), pctx, uow)
	require.NoError(t, err)

	// One user message (2) plus two facts (10).
	assert.Equal(t, 12, uow.game.state.Score)
	assert.Equal(t, 12, uow.game.state.LastDelta)
	assert.Equal(t, 1, uow.game.state.Level)

	// Same input, same delta.
	uow2 := newStubUow()
	require.NoError(t, NewGameStateStage().Run(context.Background(), pctx, uow2))
	assert.Equal(t, uow.game.state.Score, uow2.game.state.Score)
}

// --- Touchpoint ---

func TestTouchpointStageRespectsBudget(t *testing.T) {
	uow := newStubUow()
	uow.touchpoints.touchpoints = []*entity.Touchpoint{
		{Status: entity.TouchpointStatusScheduled},
		{Status: entity.TouchpointStatusScheduled},
	}

	pctx := testContext()
	pctx.OpenThreads = []string{"the move", "the new job", "the marathon"}

	err := NewTouchpointStage().Run(context.Background(), pctx, uow)
	require.NoError(t, err)

	// Two already scheduled, so only one of the three threads fits.
	assert.Len(t, uow.touchpoints.touchpoints, 3)
	created := uow.touchpoints.touchpoints[2]
	assert.Equal(t, "the move", created.Topic)
	assert.Equal(t, entity.TouchpointStatusScheduled, created.Status)
}

func TestNextContactSlotStaggersDays(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	first := nextContactSlot(now, 0)
	second := nextContactSlot(now, 1)

	assert.Equal(t, time.Date(2026, 3, 11, 18, 0, 0, 0, time.UTC), first)
	assert.Equal(t, time.Date(2026, 3, 12, 18, 0, 0, 0, time.UTC), second)
}

// --- Prompt builder ---

func TestPromptBuilderInstallsCurrentPrompt(t *testing.T) {
	uow := newStubUow()
	pctx := testContext()
	pctx.StoredFacts = []*entity.UserFact{
		{Category: entity.FactCategoryBiography, Content: "Lives in Lisbon"},
		{Category: entity.FactCategoryOpenThread, Content: "how the move is going"},
		{Category: entity.FactCategoryInnerThought, Content: "they sound excited"},
	}
	pctx.Persona = &entity.PersonaState{CurrentActivity: "working", Energy: 0.8, MoodTrajectory: "upbeat"}
	pctx.Emotional = &entity.EmotionalState{Valence: 0.4, Arousal: 0.3, DominantEmotion: "warm"}
	pctx.Game = &entity.GameState{Level: 2, Affinity: 0.6}
	pctx.Summary = "We talked about the move to Lisbon."

	err := NewPromptBuilderStage("v2").Run(context.Background(), pctx, uow)
	require.NoError(t, err)

	require.Len(t, uow.prompts.prompts, 1)
	installed := uow.prompts.prompts[0]
	assert.True(t, installed.IsCurrent)
	assert.Equal(t, "v2", installed.PipelineVersion)
	assert.Equal(t, len(installed.PromptText)/4, installed.TokenCount)

	text := installed.PromptText
	assert.Contains(t, text, "Lives in Lisbon")
	assert.Contains(t, text, "how the move is going")
	assert.Contains(t, text, "they sound excited")
	assert.Contains(t, text, "We talked about the move to Lisbon.")
	assert.Contains(t, text, "Relationship level 2")
	assert.Contains(t, text, "text chat")

	assert.Equal(t, text, pctx.PromptText)
}

func TestPromptBuilderReplacesCurrentPrompt(t *testing.T) {
	uow := newStubUow()
	pctx := testContext()
	pctx.StoredFacts = []*entity.UserFact{}

	require.NoError(t, NewPromptBuilderStage("v2").Run(context.Background(), pctx, uow))
	require.NoError(t, NewPromptBuilderStage("v2").Run(context.Background(), pctx, uow))

	current := 0
	for _, p := range uow.prompts.prompts {
		if p.IsCurrent {
			current++
		}
	}
	assert.Equal(t, 2, len(uow.prompts.prompts))
	assert.Equal(t, 1, current)
}

func TestPromptBuilderVoiceStyle(t *testing.T) {
	uow := newStubUow()
	pctx := testContext()
	pctx.Conversation.Platform = entity.PlatformVoice
	pctx.StoredFacts = []*entity.UserFact{}

	require.NoError(t, NewPromptBuilderStage("v2").Run(context.Background(), pctx, uow))

	text := uow.prompts.prompts[0].PromptText
	assert.Contains(t, text, "voice call")
	assert.False(t, strings.Contains(text, "text chat"))
}

func TestPromptBuilderUserScopedRunCoversBothPlatforms(t *testing.T) {
	uow := newStubUow()
	user := &entity.User{Id: uuid.New()}
	pctx := pipeline.NewContext(nil, user)
	pctx.StoredFacts = []*entity.UserFact{}

	require.NoError(t, NewPromptBuilderStage("v2").Run(context.Background(), pctx, uow))

	platforms := map[entity.Platform]bool{}
	for _, p := range uow.prompts.prompts {
		platforms[p.Platform] = true
	}
	assert.True(t, platforms[entity.PlatformText])
	assert.True(t, platforms[entity.PlatformVoice])
}
