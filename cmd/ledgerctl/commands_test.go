package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/credit-ledger-api/internal/config"
	"github.com/noah-isme/credit-ledger-api/internal/database"
	"github.com/noah-isme/credit-ledger-api/internal/dto"
	"github.com/noah-isme/credit-ledger-api/internal/models"
)

func memoryDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func run(t *testing.T, db *gorm.DB, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	connect := func(config.Config, zerolog.Logger) (*gorm.DB, error) { return db, nil }

	root := buildRootCommand(zerolog.Nop(), connect, &out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMigrateThenAddPractitioner(t *testing.T) {
	db := memoryDB(t)

	_, err := run(t, db, "migrate")
	require.NoError(t, err)

	out, err := run(t, db, "practitioner", "add", "--first", "Anna", "--last", "de Vries", "--email", "anna@example.com")
	require.NoError(t, err)
	require.Contains(t, out, "practitioner 1 created")

	var stored models.Practitioner
	require.NoError(t, db.First(&stored, 1).Error)
	require.Equal(t, models.RolePractitioner, stored.Role)

	_, err = run(t, db, "practitioner", "add", "--first", "Anna", "--last", "Smit", "--role", "owner")
	require.ErrorContains(t, err, "unknown role")

	_, err = run(t, db, "practitioner", "add", "--first", "Anna")
	require.Error(t, err)
}

func TestImportHistoricalDryRunReportsUnmatchedRows(t *testing.T) {
	db := memoryDB(t)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, db.Create(&models.Practitioner{FirstName: "Anna", LastName: "de Vries", Role: models.RolePractitioner}).Error)

	path := filepath.Join(t.TempDir(), "points.csv")
	content := "first_name,last_name,year,points\nAnna,de Vries,2019,4\nKarel,Smit,2020,7\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	out, err := run(t, db, "import-historical", path, "--dry-run")
	require.NoError(t, err)
	require.Contains(t, out, "Karel Smit: unmatched")
	require.Contains(t, out, "imported=0 matched=1 unmatched=1 rejected=0 dry_run=true")

	var count int64
	require.NoError(t, db.Model(&models.HistoricalPoints{}).Count(&count).Error)
	require.Zero(t, count)

	out, err = run(t, db, "import-historical", path)
	require.NoError(t, err)
	require.Contains(t, out, "dry_run=false")
	require.NoError(t, db.Model(&models.HistoricalPoints{}).Count(&count).Error)
	require.EqualValues(t, 2, count)

	_, err = run(t, db, "import-historical", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestLeaderboardJSON(t *testing.T) {
	db := memoryDB(t)
	require.NoError(t, database.Migrate(db))

	anna := models.Practitioner{FirstName: "Anna", LastName: "de Vries", Role: models.RolePractitioner}
	piet := models.Practitioner{FirstName: "Piet", LastName: "Jansen", Role: models.RolePractitioner}
	require.NoError(t, db.Create(&anna).Error)
	require.NoError(t, db.Create(&piet).Error)

	activity := models.Activity{Title: "Ethics workshop", Description: "Evening session", Category: models.ActivityCategoryWorkshop, CreditValue: 10, Active: true}
	require.NoError(t, db.Create(&activity).Error)

	decided := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for _, row := range []struct {
		practitioner uint
		credit       int
		year         int
	}{
		{anna.ID, 10, 2024},
		{piet.ID, 25, 2024},
		{anna.ID, 40, 2023},
	} {
		key := models.ClaimKeyFor(row.practitioner, activity.ID, row.year)
		submission := models.CreditSubmission{
			PractitionerID:   row.practitioner,
			ActivityID:       activity.ID,
			ActivityTitle:    activity.Title,
			ActivityCategory: activity.Category,
			CreditValue:      row.credit,
			RequestedCredit:  row.credit,
			Status:           models.SubmissionStatusApproved,
			PeriodYear:       row.year,
			DecidedAt:        &decided,
			ClaimKey:         &key,
		}
		require.NoError(t, db.Create(&submission).Error)
	}

	out, err := run(t, db, "leaderboard", "--year", "2024", "--json")
	require.NoError(t, err)

	var entries []dto.LeaderboardEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	require.Equal(t, piet.ID, entries[0].PractitionerID)
	require.EqualValues(t, 25, entries[0].Total)
	require.Equal(t, 1, entries[0].Rank)

	out, err = run(t, db, "leaderboard", "--limit", "1")
	require.NoError(t, err)
	require.Contains(t, out, "Anna de Vries")
	require.Contains(t, out, "50")
}
