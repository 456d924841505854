package utils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/princinho/parkingbackend/models"
)

// SeedAdminUser makes sure email exists with the admin role: an existing
// account is promoted, otherwise a new admin is inserted.
func SeedAdminUser(ctx context.Context, db *gorm.DB, email, password, fullName string) error {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return fmt.Errorf("missing DEFAULT_ADMIN_EMAIL or DEFAULT_ADMIN_PASSWORD")
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		fullName = "Default Admin"
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Where("email = ?", email).Take(&existing).Error
		switch {
		case err == nil:
			if existing.Role == models.RoleAdmin {
				slog.Info("Admin user already exists", slog.String("email", email))
				return nil
			}
			if err := tx.Model(&existing).Updates(map[string]any{
				"role":       string(models.RoleAdmin),
				"updated_at": time.Now().UTC(),
			}).Error; err != nil {
				return fmt.Errorf("promote admin: %w", err)
			}
			slog.Info("Existing user promoted to admin", slog.String("email", email))
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("lookup admin: %w", err)
		}

		hash, err := HashPassword(password)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		admin := models.User{
			Email:        email,
			FullName:     fullName,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return fmt.Errorf("seed admin insert failed: %w", err)
		}
		slog.Info("Admin user seeded", slog.String("email", email))
		return nil
	})
}
