package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/models"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailExists      = errors.New("email already registered")
	ErrDocumentNotFound = errors.New("document not found")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DocumentRepository stores one free-form JSON document per user
type DocumentRepository interface {
	Get(ctx context.Context, userID string) (map[string]interface{}, error)
	Create(ctx context.Context, userID string, doc map[string]interface{}) error
	Update(ctx context.Context, userID string, fields map[string]interface{}) error
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	User      UserRepository
	Documents DocumentRepository
	Tx        TransactionManager
}
