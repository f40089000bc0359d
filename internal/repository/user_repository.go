package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/life-ease-api/internal/models"
)

const userColumns = `id, email, password_hash, name, profile_image, refresh_token, last_login, created_at, updated_at`

// UserRepository provides database access for identities.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address, compared case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, strings.TrimSpace(email)); err != nil {
		if err = mapError(err); errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err = mapError(err); errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// Create inserts a new user. A unique email violation yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	const query = `INSERT INTO users (id, email, password_hash, name, profile_image, refresh_token, created_at, updated_at) VALUES (:id, :email, :password_hash, :name, :profile_image, :refresh_token, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		if err = mapError(err); errors.Is(err, ErrDuplicate) {
			return err
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateProfile updates name, email and profile image.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	const query = `UPDATE users SET name = :name, email = :email, profile_image = :profile_image, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		if err = mapError(err); errors.Is(err, ErrDuplicate) {
			return err
		}
		return fmt.Errorf("update user profile: %w", err)
	}
	return expectAffected(res, "update user profile")
}

// UpdateLastLogin updates the last_login timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// SetRefreshToken overwrites the stored refresh token. A nil token clears it.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	const query = `UPDATE users SET refresh_token = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, token, time.Now().UTC()); err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	return nil
}

// RotateRefreshToken replaces the stored refresh token only when it still equals
// current. It reports whether the swap happened.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, id, current, next string) (bool, error) {
	const query = `UPDATE users SET refresh_token = $3, updated_at = $4 WHERE id = $1 AND refresh_token = $2`
	res, err := r.db.ExecContext(ctx, query, id, current, next, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("rotate refresh token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rotate refresh token: %w", err)
	}
	return affected == 1, nil
}
