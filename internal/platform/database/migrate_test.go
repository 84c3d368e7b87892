// File: internal/platform/database/migrate_test.go
package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"clinic_backend/internal/history"
	"clinic_backend/internal/patient"
	"clinic_backend/internal/therapist"
)

func setupMigrationTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err, "Failed to connect to test database")

	err = db.Migrator().DropTable(
		&history.History{},
		&history.DIUType{},
		&therapist.Therapist{},
		&patient.Patient{},
	)
	require.NoError(t, err, "Failed to drop tables")

	err = db.AutoMigrate(
		&patient.Patient{},
		&therapist.Therapist{},
		&history.DIUType{},
		&history.History{},
	)
	require.NoError(t, err, "Failed to migrate test database")

	return db
}

func seedLegacyHistory(t *testing.T, db *gorm.DB, patientID uuid.UUID, legacy string) *history.History {
	t.Helper()
	h := &history.History{
		PatientID:     patientID,
		VisitDate:     time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		LegacyDIUType: legacy,
	}
	require.NoError(t, db.Create(h).Error)
	return h
}

func TestMigrateLegacyHistoryDIUTypes_BackfillsAndClears(t *testing.T) {
	db := setupMigrationTestDB(t)

	p := &patient.Patient{FirstName: "Rosa", LastName: "Huaman", DocumentNumber: "41223344"}
	require.NoError(t, db.Create(p).Error)

	first := seedLegacyHistory(t, db, p.ID, "T de cobre")
	second := seedLegacyHistory(t, db, p.ID, "T de cobre")
	third := seedLegacyHistory(t, db, p.ID, "Hormonal")
	untouched := seedLegacyHistory(t, db, p.ID, "")

	require.NoError(t, MigrateLegacyHistoryDIUTypes(db, zap.NewNop()))

	var diuTypes []history.DIUType
	require.NoError(t, db.Order("name ASC").Find(&diuTypes).Error)
	require.Len(t, diuTypes, 2)
	assert.Equal(t, "Hormonal", diuTypes[0].Name)
	assert.Equal(t, "hormonal", diuTypes[0].Slug)
	assert.Equal(t, "T de cobre", diuTypes[1].Name, "case should be preserved")
	assert.Equal(t, "t-de-cobre", diuTypes[1].Slug)

	for _, entry := range []*history.History{first, second} {
		var reloaded history.History
		require.NoError(t, db.First(&reloaded, "id = ?", entry.ID).Error)
		require.NotNil(t, reloaded.DIUTypeID)
		assert.Equal(t, diuTypes[1].ID, *reloaded.DIUTypeID)
		assert.Empty(t, reloaded.LegacyDIUType)
	}

	var reloadedThird history.History
	require.NoError(t, db.First(&reloadedThird, "id = ?", third.ID).Error)
	require.NotNil(t, reloadedThird.DIUTypeID)
	assert.Equal(t, diuTypes[0].ID, *reloadedThird.DIUTypeID)

	var reloadedUntouched history.History
	require.NoError(t, db.First(&reloadedUntouched, "id = ?", untouched.ID).Error)
	assert.Nil(t, reloadedUntouched.DIUTypeID)
}

func TestMigrateLegacyHistoryDIUTypes_IsIdempotent(t *testing.T) {
	db := setupMigrationTestDB(t)

	p := &patient.Patient{FirstName: "Rosa", LastName: "Huaman", DocumentNumber: "41223344"}
	require.NoError(t, db.Create(p).Error)
	seedLegacyHistory(t, db, p.ID, "T de cobre")

	require.NoError(t, MigrateLegacyHistoryDIUTypes(db, zap.NewNop()))
	require.NoError(t, MigrateLegacyHistoryDIUTypes(db, zap.NewNop()))

	var typeCount int64
	require.NoError(t, db.Model(&history.DIUType{}).Count(&typeCount).Error)
	assert.EqualValues(t, 1, typeCount)
}

func TestMigrateLegacyHistoryDIUTypes_ReusesExistingTypeByName(t *testing.T) {
	db := setupMigrationTestDB(t)

	existing := &history.DIUType{Name: "T de cobre", Slug: "t-de-cobre"}
	require.NoError(t, db.Create(existing).Error)

	p := &patient.Patient{FirstName: "Rosa", LastName: "Huaman", DocumentNumber: "41223344"}
	require.NoError(t, db.Create(p).Error)
	entry := seedLegacyHistory(t, db, p.ID, "T de cobre")

	require.NoError(t, MigrateLegacyHistoryDIUTypes(db, zap.NewNop()))

	var reloaded history.History
	require.NoError(t, db.First(&reloaded, "id = ?", entry.ID).Error)
	require.NotNil(t, reloaded.DIUTypeID)
	assert.Equal(t, existing.ID, *reloaded.DIUTypeID)

	var typeCount int64
	require.NoError(t, db.Model(&history.DIUType{}).Count(&typeCount).Error)
	assert.EqualValues(t, 1, typeCount)
}
