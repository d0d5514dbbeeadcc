package bootstrap

import (
	"context"
	"log"
	"time"

	"companion-game-be/internal/config"
	"companion-game-be/internal/controller"
	"companion-game-be/internal/entity"
	"companion-game-be/internal/pkg/logger"
	"companion-game-be/internal/pkg/mailer"
	"companion-game-be/internal/repository/implementation"
	"companion-game-be/internal/repository/unitofwork"
	"companion-game-be/internal/service"
	"companion-game-be/pkg/agent"
	"companion-game-be/pkg/embedding"
	llmollama "companion-game-be/pkg/llm/ollama"
	pktNats "companion-game-be/pkg/nats"
	"companion-game-be/pkg/pipeline"
	"companion-game-be/pkg/pipeline/stages"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AdminController      controller.IAdminController
	TaskController       controller.ITaskController
	OnboardingController controller.IOnboardingController
	AgentController      controller.IAgentController

	// Background services (exposed for main.go to run)
	ConsumerService          service.IConsumerService
	CacheInvalidationService service.ICacheInvalidationService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event buses
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// 3. AI providers
	llmProvider := llmollama.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.LLMModel)
	embeddingProvider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	log.Printf("[INFO] Using LLM %s and embedding model %s via Ollama", cfg.Ai.LLMModel, cfg.Ai.EmbeddingModel)

	// 4. Root-handle repositories. The job ledger lives here on purpose:
	// its rows must survive pipeline transaction rollbacks.
	userRepo := implementation.NewUserRepository(db)
	conversationRepo := implementation.NewConversationRepository(db)
	jobRepo := implementation.NewJobExecutionRepository(db)
	readyPromptRepo := implementation.NewReadyPromptRepository(db)
	userFactRepo := implementation.NewUserFactRepository(db)
	emotionalRepo := implementation.NewEmotionalStateRepository(db)
	gameRepo := implementation.NewGameStateRepository(db)

	// 5. Pipeline orchestrators
	var publisher pipeline.EventPublisher
	if natsPub != nil {
		publisher = natsPub
	}

	fullOrchestrator := pipeline.NewOrchestrator(
		entity.JobNamePostProcessing,
		stages.FullPipeline(llmProvider, embeddingProvider, cfg.Pipeline.Version),
		uowFactory, conversationRepo, userRepo, jobRepo, publisher, sysLogger,
	)
	batchOrchestrator := pipeline.NewOrchestrator(
		entity.JobNamePsycheBatch,
		stages.PsycheBatch(llmProvider, cfg.Pipeline.Version),
		uowFactory, conversationRepo, userRepo, jobRepo, publisher, sysLogger,
	)

	// 6. Agent prompt loading
	legacyBuilder := agent.NewLegacyPromptBuilder(userFactRepo, emotionalRepo, gameRepo)
	promptLoader := agent.NewReadyPromptLoader(
		cfg.Pipeline.ReadyPromptEnabled,
		cfg.Pipeline.ReadyPromptRolloutPercent,
		readyPromptRepo,
		rdb,
		legacyBuilder,
		sysLogger,
	)

	// 7. Services
	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, sysLogger)
	pipelineService := service.NewPipelineService(
		fullOrchestrator, batchOrchestrator,
		jobRepo, conversationRepo, userRepo,
		emailService, cfg.SMTP.AlertEmail, sysLogger,
	)
	recoveryService := service.NewRecoveryService(
		conversationRepo, jobRepo, publisher,
		emailService, cfg.SMTP.AlertEmail,
		time.Duration(cfg.Pipeline.StuckThresholdMinutes)*time.Minute,
		time.Duration(cfg.Pipeline.RecoveryWindowMinutes)*time.Minute,
		sysLogger,
	)
	onboardingService := service.NewOnboardingService(userRepo, pubSub, cfg.Pipeline.OnboardingTopic, sysLogger)
	consumerService := service.NewConsumerService(pubSub, cfg.Pipeline.OnboardingTopic, userRepo, batchOrchestrator, publisher, sysLogger)

	var invalidationService service.ICacheInvalidationService
	if natsSub != nil {
		invalidationService = service.NewCacheInvalidationService(natsSub, promptLoader, sysLogger)
	}

	// 8. Controllers
	return &Container{
		AdminController:          controller.NewAdminController(authService, pipelineService, sysLogger),
		TaskController:           controller.NewTaskController(recoveryService),
		OnboardingController:     controller.NewOnboardingController(onboardingService),
		AgentController:          controller.NewAgentController(promptLoader),
		ConsumerService:          consumerService,
		CacheInvalidationService: invalidationService,
		Logger:                   sysLogger,
	}
}
