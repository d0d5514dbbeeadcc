package main

import (
	"log"
	"os"

	"companion-game-be/internal/model"
	"companion-game-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// Extensions and enums first; AutoMigrate doesn't handle these.
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,

		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'user_role') THEN CREATE TYPE user_role AS ENUM ('player', 'admin'); END IF; END $$;`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'user_status') THEN CREATE TYPE user_status AS ENUM ('active', 'onboarding', 'banned'); END IF; END $$;`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'conversation_status') THEN CREATE TYPE conversation_status AS ENUM ('active', 'pending', 'processing', 'processed', 'failed'); END IF; END $$;`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'job_status') THEN CREATE TYPE job_status AS ENUM ('running', 'completed', 'failed'); END IF; END $$;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	models := []interface{}{
		&model.User{},
		&model.Conversation{},
		&model.JobExecution{},
		&model.ReadyPrompt{},
		&model.UserFact{},
		&model.PersonaState{},
		&model.EmotionalState{},
		&model.GameState{},
		&model.Conflict{},
		&model.Touchpoint{},
		&model.ConversationSummary{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// Partial unique index: at most one current prompt per (user, platform).
	// GORM tags cannot express the WHERE clause.
	partialIdx := `CREATE UNIQUE INDEX IF NOT EXISTS uq_ready_prompts_current
		ON ready_prompts (user_id, platform) WHERE is_current;`
	if err := db.Exec(partialIdx).Error; err != nil {
		log.Printf("Warn: Failed to create partial unique index: %v", err)
	}

	log.Println("✅ Migration complete")
}
