package main

import (
	"log"
	"os"

	"companion-game-be/internal/model"
	"companion-game-be/pkg/database"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Seeds the initial admin account. Idempotent: an existing row is left alone.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("Error: ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	var count int64
	if err := db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		log.Fatalf("Error: Lookup failed: %v", err)
	}
	if count > 0 {
		log.Printf("Admin %s already exists, nothing to do", email)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Error: Hash failed: %v", err)
	}
	hashStr := string(hash)

	admin := &model.User{
		Email:        email,
		DisplayName:  "Operations",
		PasswordHash: &hashStr,
		Role:         "admin",
		Status:       "active",
	}
	if err := db.Create(admin).Error; err != nil {
		log.Fatalf("Error: Failed to create admin: %v", err)
	}

	log.Printf("✅ Admin %s created", email)
}
