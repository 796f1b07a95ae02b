// Package identity authenticates borrowers against either a hosted identity service or
// local Postgres accounts.
package identity

import (
	"context"
	"strings"

	"github.com/ajharbinger/refibot/internal/errors"
)

// Messages shown by the sign-in dialog
const (
	MsgEmailInUse         = "This email is already in use. Please try logging in instead."
	MsgInvalidEmail       = "Invalid email address. Please check and try again."
	MsgWeakPassword       = "Password is too weak. Please use a stronger password."
	MsgInvalidCredentials = "Invalid email or password. Please try again."
	MsgNotEnabled         = "This authentication method is not enabled. Please contact support."
	MsgTooManyAttempts    = "Too many unsuccessful login attempts. Please try again later or reset your password."
	MsgUnavailable        = "Authentication is temporarily unavailable. Please try again later."
)

// Account is an authenticated user
type Account struct {
	UserID      string
	Email       string
	DisplayName string
}

// Provider creates and verifies accounts
type Provider interface {
	SignUp(ctx context.Context, email, password, displayName string) (*Account, error)
	SignIn(ctx context.Context, email, password string) (*Account, error)
}

// mapErrorCode converts an identity service error code to an application error.
// Codes may carry a suffix such as "WEAK_PASSWORD : Password should be at least 6 characters".
func mapErrorCode(code string, cause error) *errors.AppError {
	base, _, _ := strings.Cut(code, " ")
	switch base {
	case "EMAIL_EXISTS":
		return errors.Conflict(MsgEmailInUse, cause)
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return errors.InvalidInput(MsgInvalidEmail, cause)
	case "WEAK_PASSWORD", "MISSING_PASSWORD":
		return errors.InvalidInput(MsgWeakPassword, cause)
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return errors.Unauthorized(MsgInvalidCredentials, cause)
	case "OPERATION_NOT_ALLOWED":
		return errors.Forbidden(MsgNotEnabled, cause)
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return errors.RateLimited(MsgTooManyAttempts, cause)
	}
	return errors.UpstreamError(MsgUnavailable, cause)
}
