package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/life-ease-api/internal/models"
	appErrors "github.com/noah-isme/life-ease-api/pkg/errors"
)

const (
	// AccessTokenTTL is the fixed lifetime of access tokens.
	AccessTokenTTL = time.Hour
	// RefreshTokenTTL is the fixed lifetime of refresh tokens.
	RefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	errMissingSecret = errors.New("token service: access and refresh secrets are required")
	errSharedSecret  = errors.New("token service: access and refresh secrets must differ")
)

// TokenConfig holds the signing material for both token classes.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
}

// TokenService issues and verifies HS256 access and refresh tokens. It keeps no
// state and never touches storage.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	now           func() time.Time
}

// NewTokenService validates the secrets and builds a TokenService.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errMissingSecret
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errSharedSecret
	}
	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		issuer:        cfg.Issuer,
		now:           time.Now,
	}, nil
}

// Issue signs a fresh access/refresh pair for identityID. Persisting the refresh
// token is the caller's job.
func (s *TokenService) Issue(identityID string) (*models.TokenResponse, error) {
	issuedAt := s.now().UTC()

	access, err := s.sign(identityID, models.TokenTypeAccess, "", issuedAt, AccessTokenTTL, s.accessSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.sign(identityID, models.TokenTypeRefresh, uuid.NewString(), issuedAt, RefreshTokenTTL, s.refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(AccessTokenTTL.Seconds()),
	}, nil
}

// VerifyAccess returns the identity encoded in a valid access token.
func (s *TokenService) VerifyAccess(token string) (string, error) {
	claims, err := s.parse(token, models.TokenTypeAccess, s.accessSecret)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, appErrors.ErrInvalidToken.Message)
	}
	return claims.UserID, nil
}

// VerifyRefresh returns the identity encoded in a valid refresh token.
func (s *TokenService) VerifyRefresh(token string) (string, error) {
	claims, err := s.parse(token, models.TokenTypeRefresh, s.refreshSecret)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInvalidRefreshToken.Code, appErrors.ErrInvalidRefreshToken.Status, appErrors.ErrInvalidRefreshToken.Message)
	}
	return claims.UserID, nil
}

func (s *TokenService) sign(identityID, typ, jti string, issuedAt time.Time, ttl time.Duration, secret []byte) (string, error) {
	claims := &models.TokenClaims{
		UserID: identityID,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   identityID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *TokenService) parse(raw, typ string, secret []byte) (*models.TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &models.TokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token invalid")
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("unexpected token type %q", claims.Type)
	}
	if claims.UserID == "" || claims.Subject != claims.UserID {
		return nil, errors.New("token subject mismatch")
	}
	return claims, nil
}
