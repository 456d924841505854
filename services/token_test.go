package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/princinho/parkingbackend/repository/mock"
)

func TestNewTokenService_RejectsShortSecret(t *testing.T) {
	_, err := NewTokenService("too-short", time.Hour, nil)
	require.Error(t, err)

	_, err = NewTokenService(testSecret, 0, nil)
	require.Error(t, err)
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc, err := NewTokenService(testSecret, 24*time.Hour, nil)
	require.NoError(t, err)

	issued, err := svc.Issue("42")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.TokenID)

	claims, err := svc.Validate(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, issued.TokenID, claims.TokenID)
	assert.True(t, claims.ExpiresAt.Equal(issued.ExpiresAt))

	again, err := svc.Issue("42")
	require.NoError(t, err)
	assert.NotEqual(t, issued.TokenID, again.TokenID)
}

func TestTokenService_ValidateRejects(t *testing.T) {
	svc, err := NewTokenService(testSecret, time.Hour, nil)
	require.NoError(t, err)
	now := time.Now()

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := jwt.RegisteredClaims{
		Subject:   "1",
		ID:        "jti-1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "empty", token: ""},
		{name: "wrong secret", token: sign(jwt.SigningMethodHS256, []byte("another-secret-another-secret-xx"), valid)},
		{name: "wrong algorithm", token: sign(jwt.SigningMethodHS512, []byte(testSecret), valid)},
		{name: "unsigned", token: sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)},
		{name: "expired", token: sign(jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
			Subject: "1", ID: "jti-1", ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
		})},
		{name: "no expiry", token: sign(jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
			Subject: "1", ID: "jti-1",
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Validate(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenService_ValidateUsesClock(t *testing.T) {
	svc, err := NewTokenService(testSecret, time.Hour, nil)
	require.NoError(t, err)

	issued, err := svc.Issue("7")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Validate(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_IsRevokedPurgesFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRevokedTokenRepository(ctrl)
	svc, err := NewTokenService(testSecret, time.Hour, repo)
	require.NoError(t, err)
	fixed := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	gomock.InOrder(
		repo.EXPECT().PurgeExpired(gomock.Any(), fixed).Return(int64(3), nil),
		repo.EXPECT().Exists(gomock.Any(), "abc").Return(true, nil),
	)
	revoked, err := svc.IsRevoked(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestTokenService_StoreFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRevokedTokenRepository(ctrl)
	svc, err := NewTokenService(testSecret, time.Hour, repo)
	require.NoError(t, err)
	boom := errors.New("boom")

	repo.EXPECT().PurgeExpired(gomock.Any(), gomock.Any()).Return(int64(0), boom)
	_, err = svc.IsRevoked(context.Background(), "abc")
	assert.ErrorIs(t, err, boom)

	repo.EXPECT().Add(gomock.Any(), "abc", gomock.Any()).Return(boom)
	assert.ErrorIs(t, svc.Revoke(context.Background(), "abc", time.Now()), boom)
}
