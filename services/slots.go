package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/princinho/parkingbackend/apperror"
	"github.com/princinho/parkingbackend/models"
	"github.com/princinho/parkingbackend/repository"
	"github.com/princinho/parkingbackend/utils"
)

const maxDescriptionLength = 255

type SlotPage struct {
	Items  []models.Slot `json:"items"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// SlotService manages bookable slots. Only the owner or an admin may
// read or change a slot.
type SlotService struct {
	slots        repository.SlotRepository
	defaultLimit int
	maxLimit     int
}

func NewSlotService(slots repository.SlotRepository, defaultLimit, maxLimit int) *SlotService {
	return &SlotService{slots: slots, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

func (s *SlotService) Create(ctx context.Context, caller *Principal, code string, description *string) (*models.Slot, error) {
	verr := apperror.Validation("Submitted data did not pass validation")
	if !utils.ValidCode(code) {
		verr.WithField("code", "must be 2-10 characters A-Z or 0-9")
	}
	description, msg := cleanDescription(description)
	if msg != "" {
		verr.WithField("description", msg)
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	slot := &models.Slot{Code: code, Description: description, OwnerID: caller.ID}
	if err := s.slots.Create(ctx, slot); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.AlreadyExists(
				"ITEM_ALREADY_EXISTS",
				"Slot already exists",
				fmt.Sprintf("A slot with code %s already exists", code),
			).WithField("code", "already taken")
		}
		return nil, apperror.Internal(err)
	}
	return slot, nil
}

func (s *SlotService) Get(ctx context.Context, caller *Principal, id int64) (*models.Slot, error) {
	slot, err := s.slots.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, slotNotFound("slot_id")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !caller.IsAdmin() && !slot.OwnedBy(caller.ID) {
		return nil, apperror.Forbidden("Only the slot owner or an administrator may access this slot")
	}
	return slot, nil
}

// List pages through the caller's slots, or all slots for an admin. A nil
// limit uses the configured default.
func (s *SlotService) List(ctx context.Context, caller *Principal, limit *int, offset int) (*SlotPage, error) {
	lim := s.defaultLimit
	if limit != nil {
		lim = *limit
	}
	verr := apperror.Validation("Invalid pagination parameters")
	if lim < 1 || lim > s.maxLimit {
		verr.WithField("limit", fmt.Sprintf("must be between 1 and %d", s.maxLimit))
	}
	if offset < 0 {
		verr.WithField("offset", "must be greater than or equal to 0")
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	var owner *int64
	if !caller.IsAdmin() {
		owner = &caller.ID
	}
	items, total, err := s.slots.List(ctx, owner, lim, offset)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &SlotPage{Items: items, Total: total, Limit: lim, Offset: offset}, nil
}

// Update patches the description, the only mutable field. A nil
// description leaves the slot unchanged; a blank one clears it.
func (s *SlotService) Update(ctx context.Context, caller *Principal, id int64, description *string) (*models.Slot, error) {
	cleaned, msg := cleanDescription(description)
	if msg != "" {
		return nil, apperror.FieldValidation("description", msg)
	}
	current, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if description == nil {
		return current, nil
	}
	slot, err := s.slots.UpdateDescription(ctx, id, cleaned)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, slotNotFound("slot_id")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return slot, nil
}

func (s *SlotService) Delete(ctx context.Context, caller *Principal, id int64) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	err := s.slots.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return slotNotFound("slot_id")
	}
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func slotNotFound(field string) *apperror.Error {
	return apperror.NotFound("ITEM_NOT_FOUND", "Slot not found", "The requested slot does not exist or was deleted").
		WithField(field, "does not exist")
}

// cleanDescription trims d and maps blank to nil.
func cleanDescription(d *string) (*string, string) {
	if d == nil {
		return nil, ""
	}
	trimmed := strings.TrimSpace(*d)
	if trimmed == "" {
		return nil, ""
	}
	if utf8.RuneCountInString(trimmed) > maxDescriptionLength {
		return nil, fmt.Sprintf("must be at most %d characters", maxDescriptionLength)
	}
	return &trimmed, ""
}
