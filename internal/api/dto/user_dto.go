package dto

import (
	"time"

	"github.com/servicedesk/ticket-service/internal/domain"
)

// LoginRequest accepts a username or an email.
type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// CreateUserRequest payload for admin user creation.
type CreateUserRequest struct {
	Username    string  `json:"username" validate:"required,max=120"`
	Email       *string `json:"email" validate:"omitempty,email"`
	DisplayName string  `json:"display_name" validate:"required,max=120"`
	Password    string  `json:"password" validate:"required,min=8"`
	Role        string  `json:"role"`
}

// UpdateUserRequest replaces a user's profile. An empty password keeps
// the current one.
type UpdateUserRequest struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	DisplayName string  `json:"display_name" validate:"required,max=120"`
	Role        string  `json:"role" validate:"required"`
	IsActive    *bool   `json:"is_active" validate:"required"`
	Password    string  `json:"password" validate:"omitempty,min=8"`
}

// UserResponse omits the password hash.
type UserResponse struct {
	ID          string          `json:"id"`
	Username    string          `json:"username"`
	Email       *string         `json:"email"`
	DisplayName string          `json:"display_name"`
	Role        domain.UserRole `json:"role"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewUserResponse maps a user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// UpsertSLARequest sets the hours of one priority.
type UpsertSLARequest struct {
	Hours int `json:"hours" validate:"min=1,max=720"`
}

// SLARuleResponse is one row of the SLA table.
type SLARuleResponse struct {
	Priority  domain.TicketPriority `json:"priority"`
	Hours     int                   `json:"hours"`
	IsDefault bool                  `json:"is_default"`
	UpdatedAt *time.Time            `json:"updated_at"`
}
