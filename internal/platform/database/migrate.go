// File: internal/platform/database/migrate.go
package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinic_backend/internal/appointment"
	"clinic_backend/internal/history"
	"clinic_backend/internal/patient"
	"clinic_backend/internal/rbac"
	"clinic_backend/internal/status"
	"clinic_backend/internal/therapist"
	"clinic_backend/internal/user"
)

// AutoMigrate creates or updates every table the application owns.
// Models are listed referenced-first so fresh databases get their
// foreign keys in one pass.
func AutoMigrate(db *gorm.DB, logger *zap.Logger) error {
	models := []interface{}{
		&rbac.Role{},
		&rbac.Permission{},
		&rbac.RoleHasPermission{},
		&user.User{},
		&patient.Patient{},
		&therapist.Therapist{},
		&status.AppointmentStatus{},
		&appointment.Appointment{},
		&appointment.Ticket{},
		&history.DIUType{},
		&history.History{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	logger.Info("Database schema migrated", zap.Int("models", len(models)))
	return nil
}

// MigrateLegacyHistoryDIUTypes moves the free-text legacy_diu_type
// values that histories carried before the diu_types lookup existed:
// each distinct non-empty value becomes a lookup row (get-or-create by
// name, case preserved), the histories are re-pointed at the row, and
// the legacy column is cleared. Running it again is a no-op.
func MigrateLegacyHistoryDIUTypes(db *gorm.DB, logger *zap.Logger) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var legacyValues []string
		err := tx.Unscoped().
			Model(&history.History{}).
			Distinct("legacy_diu_type").
			Where("legacy_diu_type IS NOT NULL AND legacy_diu_type <> ''").
			Pluck("legacy_diu_type", &legacyValues).Error
		if err != nil {
			return fmt.Errorf("failed to collect legacy DIU type values: %w", err)
		}
		if len(legacyValues) == 0 {
			logger.Info("No legacy DIU type values to migrate")
			return nil
		}

		for _, value := range legacyValues {
			name := strings.TrimSpace(value)
			if name == "" {
				continue
			}

			// Soft-deleted lookup rows still own their name; reuse them
			// rather than tripping the unique index.
			var diuType history.DIUType
			err := tx.Unscoped().Where("name = ?", name).First(&diuType).Error
			switch {
			case err == nil:
				// Reuse the existing row.
			case errors.Is(err, gorm.ErrRecordNotFound):
				diuType = history.DIUType{Name: name, Slug: slug.Make(name)}
				if err := tx.Create(&diuType).Error; err != nil {
					return fmt.Errorf("failed to create DIU type %q: %w", name, err)
				}
				logger.Info("Created DIU type from legacy value",
					zap.String("name", name), zap.String("id", diuType.ID.String()))
			default:
				return fmt.Errorf("failed to look up DIU type %q: %w", name, err)
			}

			result := tx.Unscoped().
				Model(&history.History{}).
				Where("legacy_diu_type = ?", value).
				Updates(map[string]interface{}{
					"diu_type_id":     diuType.ID,
					"legacy_diu_type": "",
				})
			if result.Error != nil {
				return fmt.Errorf("failed to remap histories for DIU type %q: %w", name, result.Error)
			}
			logger.Info("Remapped histories to DIU type",
				zap.String("name", name),
				zap.String("diuTypeID", diuType.ID.String()),
				zap.Int64("histories", result.RowsAffected))
		}
		return nil
	})
}
