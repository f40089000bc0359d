package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/noah-isme/life-ease-api/internal/models"
	"github.com/noah-isme/life-ease-api/internal/repository"
)

// UserRepository stores identities in the users collection.
type UserRepository struct {
	coll *mongo.Collection
}

// FindByEmail returns a user by email. Emails are stored lower-cased.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": normaliseEmail(email)}, "find user by email")
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, "find user by id")
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, op string) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if err = mapError(err); errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// Create inserts a new user. The unique email index yields repository.ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Email = normaliseEmail(user.Email)

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if err = mapError(err); errors.Is(err, repository.ErrDuplicate) {
			return err
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateProfile updates name, email and profile image.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	user.Email = normaliseEmail(user.Email)
	res, err := r.coll.UpdateByID(ctx, user.ID, bson.M{"$set": bson.M{
		"name":          user.Name,
		"email":         user.Email,
		"profile_image": user.ProfileImage,
		"updated_at":    user.UpdatedAt,
	}})
	if err != nil {
		if err = mapError(err); errors.Is(err, repository.ErrDuplicate) {
			return err
		}
		return fmt.Errorf("update user profile: %w", err)
	}
	return matched(res)
}

// UpdateLastLogin updates the last_login timestamp.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if _, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_login": ts, "updated_at": ts}}); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// SetRefreshToken overwrites the stored refresh token. A nil token unsets it.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{"refresh_token": token, "updated_at": now}}
	if token == nil {
		update = bson.M{"$unset": bson.M{"refresh_token": ""}, "$set": bson.M{"updated_at": now}}
	}
	if _, err := r.coll.UpdateByID(ctx, id, update); err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	return nil
}

// RotateRefreshToken swaps the stored refresh token only when it still equals current.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, id, current, next string) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "refresh_token": current},
		bson.M{"$set": bson.M{"refresh_token": next, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("rotate refresh token: %w", err)
	}
	return res.MatchedCount == 1, nil
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
