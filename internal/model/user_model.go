package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email        string    `gorm:"type:text;not null;uniqueIndex"`
	DisplayName  string    `gorm:"type:text;not null"`
	PasswordHash *string   `gorm:"type:text"`
	Role         string    `gorm:"type:varchar(20);not null;default:'player'"`
	Status       string    `gorm:"type:varchar(20);not null;default:'onboarding'"`
	TelegramID   *string   `gorm:"type:text;index"`
	OnboardedAt  *time.Time
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
