package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/models"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "display_name", "created_at", "updated_at"}).
			AddRow(id.String(), "ada@example.com", "hash", "Ada", now, now))

	user, err := repo.GetByEmail(context.Background(), "  Ada@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "Ada", user.DisplayName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: uniqueViolation})

	err := repo.Create(context.Background(), &models.User{Email: "ada@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(sqlmock.AnyArg(), "ada@example.com", "h", "Ada", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &models.User{Email: "Ada@example.com", PasswordHash: "h", DisplayName: "Ada"}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestUserRepository_UpdateAndDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	user := &models.User{ID: uuid.New(), Email: "a@example.com"}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Update(context.Background(), user))
	assert.ErrorIs(t, repo.Delete(context.Background(), user.ID), ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM user_documents")).
		WithArgs("uid-1").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).
			AddRow([]byte(`{"userId":"uid-1","surveyData":{"loanInfo":{"loanAmount":30000}}}`)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM user_documents")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_documents")).
		WithArgs("uid-2", `{"email":"b@example.com"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("data = data || $2::jsonb")).
		WithArgs("uid-2", `{"lastUpdated":"now"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("data = data || $2::jsonb")).
		WithArgs("ghost", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	doc, err := repo.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", doc["userId"])

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	require.NoError(t, repo.Create(ctx, "uid-2", map[string]interface{}{"email": "b@example.com"}))
	require.NoError(t, repo.Update(ctx, "uid-2", map[string]interface{}{"lastUpdated": "now"}))
	assert.ErrorIs(t, repo.Update(ctx, "ghost", map[string]interface{}{"x": 1}), ErrDocumentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager(t *testing.T) {
	db, mock := newMock(t)
	tm := NewTransactionManager(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_documents")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tm.WithTransaction(ctx, func(repos *Repositories) error {
		user := &models.User{Email: "c@example.com", PasswordHash: "h"}
		if err := repos.User.Create(ctx, user); err != nil {
			return err
		}
		return repos.Documents.Create(ctx, user.ID.String(), map[string]interface{}{"email": user.Email})
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnError(&pq.Error{Code: uniqueViolation})
	mock.ExpectRollback()

	err = tm.WithTransaction(ctx, func(repos *Repositories) error {
		return repos.User.Create(ctx, &models.User{Email: "c@example.com"})
	})
	assert.True(t, errors.Is(err, ErrEmailExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}
