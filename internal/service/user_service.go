package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/life-ease-api/internal/models"
	"github.com/noah-isme/life-ease-api/internal/repository"
	appErrors "github.com/noah-isme/life-ease-api/pkg/errors"
)

const profileCachePrefix = "users:profile:"

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
}

type presenceTracker interface {
	OnlineIdentities() []string
}

// UserService serves the signed-in identity's profile and presence.
type UserService struct {
	repo      userRepository
	cache     *CacheService
	presence  presenceTracker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService. cache may be nil.
func NewUserService(repo userRepository, cache *CacheService, presence presenceTracker, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, cache: cache, presence: presence, validator: validate, logger: logger}
}

func profileCacheKey(id string) string {
	return profileCachePrefix + id
}

// Profile returns the identity's profile, served from cache when possible.
func (s *UserService) Profile(ctx context.Context, id string) (*models.User, error) {
	var cached models.User
	if hit, _ := s.cache.Get(ctx, profileCacheKey(id), &cached); hit {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	user.PasswordHash = ""
	user.RefreshToken = nil

	_ = s.cache.Set(ctx, profileCacheKey(id), user, 0)
	return user, nil
}

// UpdateProfile applies the non-empty fields of req.
func (s *UserService) UpdateProfile(ctx context.Context, id string, req models.UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" && email != user.Email {
		existing, err := s.repo.FindByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != user.ID:
			return nil, appErrors.ErrEmailInUse
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
		}
		user.Email = email
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if req.ProfileImage != "" {
		user.ProfileImage = req.ProfileImage
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.ErrEmailInUse
		case errors.Is(err, repository.ErrNotFound):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	_ = s.cache.Invalidate(ctx, profileCacheKey(id))
	s.logger.Info("profile updated", zap.String("user_id", id))

	user.PasswordHash = ""
	user.RefreshToken = nil
	return user, nil
}

// Online lists identities with a live realtime connection.
func (s *UserService) Online() models.OnlineUsers {
	ids := []string{}
	if s.presence != nil {
		ids = append(ids, s.presence.OnlineIdentities()...)
	}
	return models.OnlineUsers{UserIDs: ids, Count: len(ids)}
}
