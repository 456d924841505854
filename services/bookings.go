package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/princinho/parkingbackend/apperror"
	"github.com/princinho/parkingbackend/models"
	"github.com/princinho/parkingbackend/repository"
)

// BookingService is the reservation engine: at most one active booking
// per slot and date, status changes gated by role.
type BookingService struct {
	bookings repository.BookingRepository
	slots    repository.SlotRepository
	now      func() time.Time
}

func NewBookingService(bookings repository.BookingRepository, slots repository.SlotRepository) *BookingService {
	return &BookingService{bookings: bookings, slots: slots, now: time.Now}
}

func (s *BookingService) today() models.Date {
	return models.DateOf(s.now().UTC())
}

// Create books slotID on date for the caller. The new booking starts
// pending.
func (s *BookingService) Create(ctx context.Context, caller *Principal, slotID int64, date models.Date) (*models.Booking, error) {
	if date.IsZero() {
		return nil, apperror.FieldValidation("booking_date", "field required")
	}
	if _, err := s.slots.GetByID(ctx, slotID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, slotNotFound("slot_id")
		}
		return nil, apperror.Internal(err)
	}

	taken, err := s.bookings.ActiveExists(ctx, slotID, date, 0)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if taken {
		return nil, createConflict()
	}

	if date.Before(s.today()) {
		return nil, apperror.FieldValidation("booking_date", "booking date cannot be in the past")
	}

	booking := &models.Booking{
		SlotID:      slotID,
		UserID:      caller.ID,
		BookingDate: date,
		Status:      models.BookingStatusPending,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, createConflict()
		}
		return nil, apperror.Internal(err)
	}
	return booking, nil
}

func (s *BookingService) Get(ctx context.Context, caller *Principal, id int64) (*models.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !booking.BookedBy(caller.ID) && !booking.Slot.OwnedBy(caller.ID) {
		return nil, apperror.Forbidden("Not allowed to view this booking")
	}
	return booking, nil
}

// UpdateStatus moves a booking through its state machine. Confirming or
// reverting to pending is reserved to the slot owner and admins; the
// booker may additionally cancel.
func (s *BookingService) UpdateStatus(ctx context.Context, caller *Principal, id int64, next models.BookingStatus) (*models.Booking, error) {
	if _, err := models.ParseBookingStatus(string(next)); err != nil {
		return nil, apperror.FieldValidation("status", "must be one of: pending, confirmed, cancelled")
	}
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	isAdmin := caller.IsAdmin()
	isSlotOwner := booking.Slot.OwnedBy(caller.ID)
	isBooker := booking.BookedBy(caller.ID)
	switch next {
	case models.BookingStatusConfirmed:
		if !isSlotOwner && !isAdmin {
			return nil, apperror.Forbidden("Only the slot owner or an administrator may confirm a booking")
		}
	case models.BookingStatusPending:
		if !isSlotOwner && !isAdmin {
			return nil, apperror.Forbidden("Only the slot owner or an administrator may change booking status")
		}
	case models.BookingStatusCancelled:
		if !isSlotOwner && !isBooker && !isAdmin {
			return nil, apperror.Forbidden("Not allowed to cancel this booking")
		}
	}

	if !booking.Status.CanTransitionTo(next) {
		return nil, apperror.FieldValidation("status",
			fmt.Sprintf("cannot change status from %s to %s", booking.Status, next))
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, next, s.now().UTC())
	switch {
	case errors.Is(err, repository.ErrSlotTaken):
		return nil, apperror.Conflict("The slot is already booked for the selected date").
			WithField("booking_id", "conflicts with another booking")
	case errors.Is(err, repository.ErrNotFound):
		return nil, bookingNotFound()
	case err != nil:
		return nil, apperror.Internal(err)
	}
	return updated, nil
}

// Cancel sets the booking to cancelled. Cancelling twice is not an error.
func (s *BookingService) Cancel(ctx context.Context, caller *Principal, id int64) error {
	_, err := s.UpdateStatus(ctx, caller, id, models.BookingStatusCancelled)
	return err
}

// List returns every booking for an admin, otherwise the bookings the
// caller made or that sit on the caller's slots.
func (s *BookingService) List(ctx context.Context, caller *Principal, slotID *int64) ([]models.Booking, error) {
	filter := repository.BookingFilter{SlotID: slotID}
	if !caller.IsAdmin() {
		filter.VisibleTo = &caller.ID
	}
	out, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return out, nil
}

func (s *BookingService) load(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, bookingNotFound()
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if booking.Slot == nil {
		return nil, apperror.Internal(fmt.Errorf("booking %d loaded without its slot", id))
	}
	return booking, nil
}

func createConflict() *apperror.Error {
	return apperror.Conflict("The slot is already booked for the selected date").
		WithField("slot_id", "already booked").
		WithField("booking_date", "date unavailable")
}

func bookingNotFound() *apperror.Error {
	return apperror.NotFound("BOOKING_NOT_FOUND", "Booking not found", "The requested booking does not exist").
		WithField("booking_id", "does not exist")
}
