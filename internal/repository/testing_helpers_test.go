package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/credit-ledger-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Practitioner{},
		&models.Activity{},
		&models.CreditSubmission{},
		&models.HistoricalPoints{},
		&models.AuditLog{},
	))

	return db
}

func seedActivity(t *testing.T, db *gorm.DB, activity models.Activity) models.Activity {
	t.Helper()
	if activity.Title == "" {
		activity.Title = "Ethics workshop"
	}
	if activity.Description == "" {
		activity.Description = "Half-day session"
	}
	if activity.Category == "" {
		activity.Category = models.ActivityCategoryWorkshop
	}
	require.NoError(t, db.Create(&activity).Error)
	return activity
}

func approvedSubmission(practitionerID, activityID uint, credit, year int, decidedAt time.Time) models.CreditSubmission {
	key := models.ClaimKeyFor(practitionerID, activityID, year)
	return models.CreditSubmission{
		PractitionerID:   practitionerID,
		ActivityID:       activityID,
		ActivityTitle:    "Ethics workshop",
		ActivityCategory: models.ActivityCategoryWorkshop,
		CreditValue:      credit,
		RequestedCredit:  credit,
		Status:           models.SubmissionStatusApproved,
		PeriodYear:       year,
		DecidedAt:        &decidedAt,
		ClaimKey:         &key,
	}
}

func ptr[T any](v T) *T {
	return &v
}

var ctx = context.Background()
