package dto

import (
	"time"

	"github.com/campusdesk/issue-tracker/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	School   *string `json:"school"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is a user without credentials.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	School    *string     `json:"school,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// RegisterResponse wraps the created account.
type RegisterResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// LoginResponse carries the bearer token.
type LoginResponse struct {
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// MeResponse wraps the authenticated identity.
type MeResponse struct {
	User UserResponse `json:"user"`
}

// FacultiesResponse lists faculty accounts.
type FacultiesResponse struct {
	Message   string         `json:"message"`
	Faculties []UserResponse `json:"faculties"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		School:    u.School,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NewUserResponses maps a slice of users.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
