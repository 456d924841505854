package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/princinho/parkingbackend/apperror"
	"github.com/princinho/parkingbackend/models"
	"github.com/princinho/parkingbackend/repository"
	"github.com/princinho/parkingbackend/testutil"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type env struct {
	db           *gorm.DB
	tokens       *TokenService
	authn        *Authenticator
	auth         *AuthService
	slots        *SlotService
	bookings     *BookingService
	availability *AvailabilityService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	users := repository.NewUserRepo(db)
	slotRepo := repository.NewSlotRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	tokens, err := NewTokenService(testSecret, time.Hour, repository.NewRevokedTokenRepo(db))
	require.NoError(t, err)

	return &env{
		db:           db,
		tokens:       tokens,
		authn:        NewAuthenticator(tokens, users),
		auth:         NewAuthService(users, tokens),
		slots:        NewSlotService(slotRepo, 20, 100),
		bookings:     NewBookingService(bookingRepo, slotRepo),
		availability: NewAvailabilityService(slotRepo, bookingRepo),
	}
}

func principalOf(u *models.User) *Principal {
	return &Principal{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role}
}

func requireKind(t *testing.T, err error, kind apperror.Kind) *apperror.Error {
	t.Helper()
	require.Error(t, err)
	appErr := apperror.From(err)
	require.Equal(t, kind, appErr.Kind, "got %v", err)
	return appErr
}
