package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Auth     AuthConfig
	Ai       AIConfig
	Pipeline PipelineConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
	AlertEmail string
}

type AuthConfig struct {
	JWTSecret string
}

type AIConfig struct {
	OllamaBaseURL  string
	LLMModel       string
	EmbeddingModel string
}

type PipelineConfig struct {
	Version                   string
	ReadyPromptEnabled        bool
	ReadyPromptRolloutPercent int
	StuckThresholdMinutes     int
	RecoveryWindowMinutes     int
	OnboardingTopic           string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "CompanionOps"),
			AlertEmail: getEnv("SMTP_ALERT_EMAIL", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMModel:       getEnv("LLM_MODEL", "llama3"),
			EmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		},
		Pipeline: PipelineConfig{
			Version:                   getEnv("PIPELINE_VERSION", "v2"),
			ReadyPromptEnabled:        getEnvAsBool("READY_PROMPT_ENABLED", true),
			ReadyPromptRolloutPercent: getEnvAsInt("READY_PROMPT_ROLLOUT_PERCENT", 100),
			StuckThresholdMinutes:     getEnvAsInt("STUCK_THRESHOLD_MINUTES", 30),
			RecoveryWindowMinutes:     getEnvAsInt("RECOVERY_WINDOW_MINUTES", 10),
			OnboardingTopic:           getEnv("ONBOARDING_TOPIC_NAME", "USER_ONBOARDING"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
