package dto

import (
	"time"

	"github.com/google/uuid"
)

type UserProfileResponse struct {
	Id          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	HasPassword bool       `json:"has_password"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"omitempty,email"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// UserDataExport is the full JSON export returned by the download-data
// endpoint.
type UserDataExport struct {
	Profile    UserProfileResponse `json:"profile"`
	Documents  []DocumentResponse  `json:"documents"`
	Sessions   []SessionDataExport `json:"sessions"`
	ExportedAt time.Time           `json:"exported_at"`
}

type SessionDataExport struct {
	Id       uuid.UUID         `json:"id"`
	Title    string            `json:"title"`
	Messages []MessageResponse `json:"messages"`
}
