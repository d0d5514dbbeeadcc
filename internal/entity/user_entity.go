package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRolePlayer UserRole = "player"
	UserRoleAdmin  UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive     UserStatus = "active"
	UserStatusOnboarding UserStatus = "onboarding"
	UserStatusBanned     UserStatus = "banned"
)

type User struct {
	Id           uuid.UUID
	Email        string
	DisplayName  string
	PasswordHash *string
	Role         UserRole
	Status       UserStatus
	TelegramID   *string
	OnboardedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
