package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/repository/contract"
	"companion-game-be/internal/repository/implementation"
	"companion-game-be/internal/repository/unitofwork"
	"companion-game-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.ConversationRepository())
	assert.NotNil(t, uow.ReadyPromptRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check User Repository", func(t *testing.T) {
		count, err := uow.UserRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("User count: %d", count)
	})

	t.Run("Check Conversation Repository", func(t *testing.T) {
		count, err := uow.ConversationRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Conversation count: %d", count)
	})
}

// The ledger lives outside the unit of work so its rows survive pipeline
// rollbacks; exercise it on the root handle the way the app wires it.
func TestJobLedgerRoundTrip(t *testing.T) {
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)

	ledger := implementation.NewJobExecutionRepository(gormDB)
	ctx := context.Background()

	// Unique name per run so earlier rows in a shared database cannot
	// satisfy the recency checks below.
	jobName := entity.JobName("roundtrip_" + uuid.NewString()[:8])

	exec, err := ledger.StartExecution(ctx, jobName)
	require.NoError(t, err)
	require.NotNil(t, exec)
	assert.Equal(t, entity.JobStatusRunning, exec.Status)
	assert.Nil(t, exec.CompletedAt)

	t.Run("Running rows are not recent", func(t *testing.T) {
		// Recency keys on completed_at: a row that started but never
		// finished must not suppress the next attempt.
		recent, err := ledger.HasRecentExecution(ctx, jobName, time.Hour)
		assert.NoError(t, err)
		assert.False(t, recent)

		running, err := ledger.HasRunning(ctx, jobName)
		assert.NoError(t, err)
		assert.True(t, running)
	})

	t.Run("AttachUser stamps the row", func(t *testing.T) {
		userId := uuid.New()
		err := ledger.AttachUser(ctx, exec.Id, userId)
		assert.NoError(t, err)

		rows, total, err := ledger.GetUserExecutions(ctx, userId, 1, 20)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), total)
		if assert.Len(t, rows, 1) {
			assert.Equal(t, exec.Id, rows[0].Id)
		}
	})

	t.Run("Complete finalizes once", func(t *testing.T) {
		done, err := ledger.CompleteExecution(ctx, exec.Id, &entity.JobResult{
			Ok: &entity.JobMetrics{StageDurations: map[string]int64{"extraction": 12}},
		})
		require.NoError(t, err)
		assert.Equal(t, entity.JobStatusCompleted, done.Status)
		assert.NotNil(t, done.CompletedAt)
		assert.NotNil(t, done.DurationMS)

		recent, err := ledger.HasRecentExecution(ctx, jobName, time.Minute)
		assert.NoError(t, err)
		assert.True(t, recent)
	})

	t.Run("Unknown id is not found", func(t *testing.T) {
		_, err := ledger.CompleteExecution(ctx, uuid.New(), &entity.JobResult{})
		assert.ErrorIs(t, err, contract.ErrJobExecutionNotFound)
	})
}
