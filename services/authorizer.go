package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/princinho/parkingbackend/apperror"
	"github.com/princinho/parkingbackend/models"
	"github.com/princinho/parkingbackend/repository"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	ID        int64
	Email     string
	FullName  string
	Role      models.Role
	TokenID   string
	ExpiresAt time.Time
	// Token is the raw bearer token, kept so the caller can revoke it.
	Token string
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role.IsAdmin()
}

type Authenticator struct {
	tokens *TokenService
	users  repository.UserRepository
}

func NewAuthenticator(tokens *TokenService, users repository.UserRepository) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Authenticate resolves a bearer token to its principal. Invalid,
// revoked and orphaned tokens all fail with AuthenticationFailed.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (*Principal, error) {
	claims, err := a.tokens.Validate(raw)
	if err != nil {
		return nil, authFailed(err)
	}
	userID, err := subjectID(claims)
	if err != nil {
		return nil, authFailed(err)
	}

	revoked, err := a.tokens.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if revoked {
		return nil, authFailed(ErrTokenRevoked)
	}

	user, err := a.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, authFailed(ErrUserNotFound)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return &Principal{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		TokenID:   claims.TokenID,
		ExpiresAt: claims.ExpiresAt,
		Token:     raw,
	}, nil
}

// RequireAdmin fails with Forbidden unless p is an admin.
func RequireAdmin(p *Principal) error {
	if !p.IsAdmin() {
		return apperror.Forbidden("Administrator role required")
	}
	return nil
}

func subjectID(claims *TokenClaims) (int64, error) {
	if claims.Subject == "" || claims.TokenID == "" {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

func authFailed(cause error) *apperror.Error {
	detail := "Could not validate credentials"
	switch {
	case errors.Is(cause, ErrTokenRevoked):
		detail = "Token has been revoked"
	case errors.Is(cause, ErrUserNotFound):
		detail = "User no longer exists"
	}
	return apperror.AuthenticationFailed(detail).Wrap(cause)
}
