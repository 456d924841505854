package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/princinho/parkingbackend/models"
)

type RevokedTokenRepo struct{ db *gorm.DB }

func NewRevokedTokenRepo(db *gorm.DB) *RevokedTokenRepo {
	return &RevokedTokenRepo{db: db}
}

func (r *RevokedTokenRepo) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	rec := models.RevokedToken{JTI: jti, ExpiresAt: expiresAt.UTC()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "jti"}}, DoNothing: true}).
		Create(&rec).Error
}

func (r *RevokedTokenRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&models.RevokedToken{})
	return res.RowsAffected, res.Error
}

func (r *RevokedTokenRepo) Exists(ctx context.Context, jti string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.RevokedToken{}).Where("jti = ?", jti).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
