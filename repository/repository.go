// Package repository is the relational store behind the services. Each
// interface has a gorm implementation; repository/mock holds gomock
// doubles of the same interfaces.
package repository

//go:generate mockgen -source=repository.go -destination=mock/repository.go -package=mock

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/princinho/parkingbackend/models"
	"github.com/princinho/parkingbackend/utils"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
	// ErrSlotTaken means another active booking holds the slot for that date.
	ErrSlotTaken = errors.New("slot already booked for date")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateRole(ctx context.Context, id int64, role models.Role) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type SlotRepository interface {
	Create(ctx context.Context, slot *models.Slot) error
	GetByID(ctx context.Context, id int64) (*models.Slot, error)
	// List pages through slots ordered by code. A nil ownerID lists all.
	List(ctx context.Context, ownerID *int64, limit, offset int) ([]models.Slot, int64, error)
	// ListByCode returns every slot ordered by code, or only the slot
	// with the given code when code is not empty.
	ListByCode(ctx context.Context, code string) ([]models.Slot, error)
	UpdateDescription(ctx context.Context, id int64, description *string) (*models.Slot, error)
	Delete(ctx context.Context, id int64) error
}

// BookingFilter narrows a booking listing. VisibleTo restricts the rows
// to those booked by, or on a slot owned by, that user.
type BookingFilter struct {
	VisibleTo *int64
	SlotID    *int64
}

type BookingRepository interface {
	// ActiveExists reports whether a non-cancelled booking other than
	// excludeID holds slotID on date. Pass 0 to exclude nothing.
	ActiveExists(ctx context.Context, slotID int64, date models.Date, excludeID int64) (bool, error)
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status models.BookingStatus, at time.Time) (*models.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]models.Booking, error)
	// ActiveSlotIDs returns the ids of slots holding an active booking on date.
	ActiveSlotIDs(ctx context.Context, date models.Date) (map[int64]bool, error)
}

type RevokedTokenRepository interface {
	// Add is a no-op when jti is already present.
	Add(ctx context.Context, jti string, expiresAt time.Time) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	Exists(ctx context.Context, jti string) (bool, error)
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case utils.IsDuplicateKey(err):
		return errors.Join(ErrDuplicate, err)
	default:
		return err
	}
}

// lockForUpdate adds FOR UPDATE where the dialect supports row locks.
// sqlite serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
