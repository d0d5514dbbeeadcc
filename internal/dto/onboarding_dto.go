package dto

import (
	"github.com/google/uuid"
)

type OnboardUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,min=2"`
	Platform    string `json:"platform" validate:"required,oneof=text voice"`
}

// OnboardUserResponse is returned with 202: bootstrap work (initial states,
// first ready prompt) continues in the background.
type OnboardUserResponse struct {
	UserId uuid.UUID `json:"user_id"`
	Status string    `json:"status"`
}
