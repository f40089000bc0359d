package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/life-ease-api/internal/models"
	"github.com/noah-isme/life-ease-api/internal/repository"
	appErrors "github.com/noah-isme/life-ease-api/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	SetRefreshToken(ctx context.Context, id string, token *string) error
	RotateRefreshToken(ctx context.Context, id, current, next string) (bool, error)
}

type tokenIssuer interface {
	Issue(identityID string) (*models.TokenResponse, error)
	VerifyRefresh(token string) (string, error)
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// dummyPasswordHash is compared against when the email is unknown so both login
// failure paths pay for one bcrypt comparison.
func dummyPasswordHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	})
	return dummyHash
}

// AuthService implements register, login, refresh and logout.
type AuthService struct {
	repo       authUserRepository
	tokens     tokenIssuer
	validator  *validator.Validate
	logger     *zap.Logger
	bcryptCost int
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, tokens tokenIssuer, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{repo: repo, tokens: tokens, validator: validate, logger: logger, bcryptCost: bcrypt.DefaultCost}
}

// Register creates an identity and signs it in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.TokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid register payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, appErrors.ErrDuplicateIdentity
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
	}

	pair, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue tokens")
	}
	user.RefreshToken = &pair.RefreshToken

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.ErrDuplicateIdentity
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return pair, nil
}

// Login verifies credentials and rotates the stored refresh token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash(), []byte(req.Password))
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	pair, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue tokens")
	}

	if err := s.repo.SetRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refresh token")
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}

	return pair, nil
}

// Refresh exchanges the current refresh token for a new pair. The presented token
// must be the one stored on the identity; the swap is conditional so a token can be
// used at most once.
func (s *AuthService) Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.TokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.ErrInvalidRefreshToken
	}

	identityID, err := s.tokens.VerifyRefresh(req.RefreshToken)
	if err != nil {
		return nil, appErrors.ErrInvalidRefreshToken
	}

	user, err := s.repo.FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.ErrInvalidRefreshToken
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if user.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(req.RefreshToken)) != 1 {
		s.logger.Warn("stale refresh token presented", zap.String("user_id", identityID))
		return nil, appErrors.ErrInvalidRefreshToken
	}

	pair, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue tokens")
	}

	swapped, err := s.repo.RotateRefreshToken(ctx, user.ID, req.RefreshToken, pair.RefreshToken)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rotate refresh token")
	}
	if !swapped {
		s.logger.Warn("refresh token rotated concurrently", zap.String("user_id", identityID))
		return nil, appErrors.ErrInvalidRefreshToken
	}

	return pair, nil
}

// Logout clears the stored refresh token. It succeeds when none is stored.
func (s *AuthService) Logout(ctx context.Context, identityID string) error {
	if err := s.repo.SetRefreshToken(ctx, identityID, nil); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear refresh token")
	}
	return nil
}
