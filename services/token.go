package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/princinho/parkingbackend/repository"
)

// MinSecretLength is the shortest signing secret accepted, in bytes.
const MinSecretLength = 32

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
	ErrUserNotFound = errors.New("user not found")
)

// TokenClaims is what a validated access token asserts.
type TokenClaims struct {
	Subject   string
	TokenID   string
	ExpiresAt time.Time
}

type IssuedToken struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// TokenService signs HS256 access tokens and keeps the jti denylist.
type TokenService struct {
	secret  []byte
	ttl     time.Duration
	revoked repository.RevokedTokenRepository
	now     func() time.Time
}

func NewTokenService(secret string, ttl time.Duration, revoked repository.RevokedTokenRepository) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	return &TokenService{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: revoked,
		now:     time.Now,
	}, nil
}

func (s *TokenService) Issue(subjectID string) (IssuedToken, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	jti := uuid.NewString()

	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	// NumericDate drops sub-second precision
	return IssuedToken{Token: signed, TokenID: jti, ExpiresAt: expiresAt.Truncate(time.Second)}, nil
}

// Validate checks signature, algorithm and expiry. It does not consult
// the denylist.
func (s *TokenService) Validate(token string) (*TokenClaims, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	return &TokenClaims{
		Subject:   claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}

func (s *TokenService) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if err := s.revoked.Add(ctx, tokenID, expiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked drops expired denylist rows before looking tokenID up.
func (s *TokenService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if _, err := s.revoked.PurgeExpired(ctx, s.now().UTC()); err != nil {
		return false, fmt.Errorf("purge revoked tokens: %w", err)
	}
	revoked, err := s.revoked.Exists(ctx, tokenID)
	if err != nil {
		return false, fmt.Errorf("lookup revoked token: %w", err)
	}
	return revoked, nil
}
