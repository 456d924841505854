package services

import (
	"context"

	"github.com/princinho/parkingbackend/apperror"
	"github.com/princinho/parkingbackend/models"
	"github.com/princinho/parkingbackend/repository"
	"github.com/princinho/parkingbackend/utils"
)

type SlotAvailability struct {
	SlotID      int64  `json:"slot_id"`
	Code        string `json:"code"`
	IsAvailable bool   `json:"is_available"`
}

type Availability struct {
	Date  models.Date        `json:"date"`
	Slots []SlotAvailability `json:"slots"`
}

type AvailabilityService struct {
	slots    repository.SlotRepository
	bookings repository.BookingRepository
}

func NewAvailabilityService(slots repository.SlotRepository, bookings repository.BookingRepository) *AvailabilityService {
	return &AvailabilityService{slots: slots, bookings: bookings}
}

// Availability reports, per slot ordered by code, whether date is free.
// A non-empty code narrows the report to that slot.
func (s *AvailabilityService) Availability(ctx context.Context, date models.Date, code string) (*Availability, error) {
	if date.IsZero() {
		return nil, apperror.FieldValidation("target_date", "field required")
	}
	if code != "" {
		code = utils.NormalizeCode(code)
		if !utils.ValidCode(code) {
			return nil, apperror.Validation("Slot codes may only contain A-Z and digits").
				WithField("code", "invalid format")
		}
	}

	slots, err := s.slots.ListByCode(ctx, code)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	taken, err := s.bookings.ActiveSlotIDs(ctx, date)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	out := &Availability{Date: date, Slots: make([]SlotAvailability, 0, len(slots))}
	for _, slot := range slots {
		out.Slots = append(out.Slots, SlotAvailability{
			SlotID:      slot.ID,
			Code:        slot.Code,
			IsAvailable: !taken[slot.ID],
		})
	}
	return out, nil
}
