package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/life-ease-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var userRowColumns = []string{"id", "email", "password_hash", "name", "profile_image", "refresh_token", "last_login", "created_at", "updated_at"}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow("u1", "a@x.com", "hash", "A", "", "refresh", now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("A@x.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), " A@x.com ")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
	require.NotNil(t, user.RefreshToken)
	assert.Equal(t, "refresh", *user.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1 LIMIT 1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserLowercasesEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Email: "New@X.com", PasswordHash: "hash", Name: "New"}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "new@x.com", user.Email)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &models.User{Email: "a@x.com", PasswordHash: "hash", Name: "A"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileMissingUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users SET name").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateProfile(context.Background(), &models.User{ID: "u1", Email: "a@x.com", Name: "A"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetRefreshTokenClears(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("u1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetRefreshToken(context.Background(), "u1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	query := regexp.QuoteMeta("UPDATE users SET refresh_token = $3, updated_at = $4 WHERE id = $1 AND refresh_token = $2")
	mock.ExpectExec(query).WithArgs("u1", "old", "new", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("u1", "old", "newer", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 0))

	swapped, err := repo.RotateRefreshToken(context.Background(), "u1", "old", "new")
	require.NoError(t, err)
	assert.True(t, swapped)

	swapped, err = repo.RotateRefreshToken(context.Background(), "u1", "old", "newer")
	require.NoError(t, err)
	assert.False(t, swapped)
	assert.NoError(t, mock.ExpectationsWereMet())
}
