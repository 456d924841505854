// Package testutil opens throwaway stores and seeds fixtures for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/princinho/parkingbackend/database"
	"github.com/princinho/parkingbackend/models"
	"github.com/princinho/parkingbackend/utils"
)

// Password satisfies the registration password rules.
const Password = "Secret123"

// NewDB returns a migrated in-memory sqlite database closed at test end.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, "sqlite://:memory:", database.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	require.NoError(t, database.Migrate(ctx, db))
	return db
}

func CreateUser(t testing.TB, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(Password)
	require.NoError(t, err)
	u := &models.User{
		Email:        email,
		FullName:     email,
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func CreateSlot(t testing.TB, db *gorm.DB, code string, owner *models.User) *models.Slot {
	t.Helper()
	s := &models.Slot{Code: code, OwnerID: owner.ID}
	require.NoError(t, db.Omit("Owner").Create(s).Error)
	return s
}

func CreateBooking(t testing.TB, db *gorm.DB, slot *models.Slot, booker *models.User, date models.Date, status models.BookingStatus) *models.Booking {
	t.Helper()
	b := &models.Booking{
		SlotID:      slot.ID,
		UserID:      booker.ID,
		BookingDate: date,
		Status:      status,
	}
	require.NoError(t, db.Omit("Slot", "User").Create(b).Error)
	return b
}

// Today is the current UTC calendar day.
func Today() models.Date {
	return models.DateOf(time.Now().UTC())
}
