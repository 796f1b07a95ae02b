package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a locally managed account, used when no hosted identity service is configured
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// SignUpRequest is the body of POST /auth/signup
type SignUpRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name"`
	Birthday    string `json:"birthday"`
	CustomerID  string `json:"customer_id"`
}

// FullName returns the display name, falling back to "First Last"
func (r SignUpRequest) FullName() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Account is the authenticated user as returned to clients
type Account struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// AuthResponse is returned by signup, login and refresh
type AuthResponse struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	CSRFToken    string    `json:"csrf_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         Account   `json:"user"`
}
