package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/princinho/parkingbackend/models"
)

type SlotRepo struct{ db *gorm.DB }

func NewSlotRepo(db *gorm.DB) *SlotRepo {
	return &SlotRepo{db: db}
}

func (r *SlotRepo) Create(ctx context.Context, slot *models.Slot) error {
	return translate(r.db.WithContext(ctx).Omit("Owner").Create(slot).Error)
}

func (r *SlotRepo) GetByID(ctx context.Context, id int64) (*models.Slot, error) {
	var s models.Slot
	if err := r.db.WithContext(ctx).Take(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *SlotRepo) List(ctx context.Context, ownerID *int64, limit, offset int) ([]models.Slot, int64, error) {
	qb := r.db.WithContext(ctx).Model(&models.Slot{})
	if ownerID != nil {
		qb = qb.Where("owner_id = ?", *ownerID)
	}

	var total int64
	if err := qb.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := make([]models.Slot, 0, limit)
	if err := qb.Order("code ASC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *SlotRepo) ListByCode(ctx context.Context, code string) ([]models.Slot, error) {
	qb := r.db.WithContext(ctx).Model(&models.Slot{})
	if code != "" {
		qb = qb.Where("code = ?", code)
	}
	var out []models.Slot
	if err := qb.Order("code ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SlotRepo) UpdateDescription(ctx context.Context, id int64, description *string) (*models.Slot, error) {
	var s models.Slot
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(&s, "id = ?", id).Error; err != nil {
			return err
		}
		// Update (not Updates) so a nil description is written as NULL
		if err := tx.Model(&s).Update("description", description).Error; err != nil {
			return err
		}
		s.Description = description
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// Delete removes the slot. Its bookings go with it through the foreign
// key's ON DELETE CASCADE.
func (r *SlotRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&models.Slot{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
