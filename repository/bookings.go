package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/princinho/parkingbackend/models"
)

type BookingRepo struct{ db *gorm.DB }

func NewBookingRepo(db *gorm.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

func activeOn(tx *gorm.DB, slotID int64, date models.Date, excludeID int64) *gorm.DB {
	q := tx.Model(&models.Booking{}).
		Where("slot_id = ? AND booking_date = ? AND status <> ?", slotID, date, models.BookingStatusCancelled)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	return q
}

func (r *BookingRepo) ActiveExists(ctx context.Context, slotID int64, date models.Date, excludeID int64) (bool, error) {
	var n int64
	if err := activeOn(r.db.WithContext(ctx), slotID, date, excludeID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create re-checks for an active booking and inserts in one transaction.
// The partial unique index on (slot_id, booking_date) catches writers
// that race past the check.
func (r *BookingRepo) Create(ctx context.Context, b *models.Booking) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Booking
		err := lockForUpdate(activeOn(tx, b.SlotID, b.BookingDate, 0)).Take(&existing).Error
		if err == nil {
			return ErrSlotTaken
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if b.Status == "" {
			b.Status = models.BookingStatusPending
		}
		return tx.Omit(clause.Associations).Create(b).Error
	})
	return slotTaken(err)
}

// GetByID loads the booking together with its slot.
func (r *BookingRepo) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	var b models.Booking
	if err := r.db.WithContext(ctx).Preload("Slot").Take(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// UpdateStatus writes status and stamps updated_at. Moving to an active
// status fails with ErrSlotTaken when another active booking holds the
// same slot and date.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id int64, status models.BookingStatus, at time.Time) (*models.Booking, error) {
	var b models.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Take(&b, "id = ?", id).Error; err != nil {
			return err
		}
		if status.Active() {
			var other models.Booking
			err := activeOn(tx, b.SlotID, b.BookingDate, b.ID).Take(&other).Error
			if err == nil {
				return ErrSlotTaken
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		if err := tx.Model(&b).Updates(map[string]any{
			"status":     string(status),
			"updated_at": at,
		}).Error; err != nil {
			return err
		}
		b.Status = status
		b.UpdatedAt = at

		var slot models.Slot
		if err := tx.Take(&slot, "id = ?", b.SlotID).Error; err != nil {
			return err
		}
		b.Slot = &slot
		return nil
	})
	if err != nil {
		return nil, slotTaken(err)
	}
	return &b, nil
}

func (r *BookingRepo) List(ctx context.Context, filter BookingFilter) ([]models.Booking, error) {
	qb := r.db.WithContext(ctx).Model(&models.Booking{}).
		Select("bookings.*").
		Joins("JOIN slots ON slots.id = bookings.slot_id")
	if filter.VisibleTo != nil {
		qb = qb.Where("bookings.user_id = ? OR slots.owner_id = ?", *filter.VisibleTo, *filter.VisibleTo)
	}
	if filter.SlotID != nil {
		qb = qb.Where("bookings.slot_id = ?", *filter.SlotID)
	}

	out := []models.Booking{}
	if err := qb.Order("bookings.booking_date ASC, bookings.id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BookingRepo) ActiveSlotIDs(ctx context.Context, date models.Date) (map[int64]bool, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("booking_date = ? AND status <> ?", date, models.BookingStatusCancelled).
		Pluck("slot_id", &ids).Error
	if err != nil {
		return nil, err
	}
	taken := make(map[int64]bool, len(ids))
	for _, id := range ids {
		taken[id] = true
	}
	return taken, nil
}

// slotTaken folds a unique index violation into ErrSlotTaken.
func slotTaken(err error) error {
	err = translate(err)
	if errors.Is(err, ErrDuplicate) {
		return ErrSlotTaken
	}
	return err
}
