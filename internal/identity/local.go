package identity

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/ajharbinger/refibot/internal/auth"
	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/models"
	"github.com/ajharbinger/refibot/internal/repository"
)

var validate = validator.New()

// LocalProvider keeps accounts in the users table with bcrypt password hashes
type LocalProvider struct {
	repos *repository.Repositories
}

func NewLocalProvider(repos *repository.Repositories) *LocalProvider {
	return &LocalProvider{repos: repos}
}

func (l *LocalProvider) SignUp(ctx context.Context, email, password, displayName string) (*Account, error) {
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, errors.InvalidInput(MsgInvalidEmail, err)
	}
	if len(password) < auth.MinPasswordLength {
		return nil, errors.InvalidInput(MsgWeakPassword, nil)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, errors.InternalError("failed to hash password", err)
	}

	user := &models.User{Email: email, PasswordHash: hash, DisplayName: displayName}
	err = l.repos.Tx.WithTransaction(ctx, func(repos *repository.Repositories) error {
		if _, err := repos.User.GetByEmail(ctx, email); err == nil {
			return repository.ErrEmailExists
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return err
		}
		return repos.User.Create(ctx, user)
	})
	if errors.Is(err, repository.ErrEmailExists) {
		return nil, errors.Conflict(MsgEmailInUse, err)
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to create account", err).WithOperation("identity.signUp")
	}

	return &Account{UserID: user.ID.String(), Email: user.Email, DisplayName: user.DisplayName}, nil
}

func (l *LocalProvider) SignIn(ctx context.Context, email, password string) (*Account, error) {
	user, err := l.repos.User.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Unauthorized(MsgInvalidCredentials, err)
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load account", err).WithOperation("identity.signIn")
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, errors.Unauthorized(MsgInvalidCredentials, nil)
	}
	return &Account{UserID: user.ID.String(), Email: user.Email, DisplayName: user.DisplayName}, nil
}
