package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/credit-ledger-api/internal/models"
)

func pendingSubmission(practitionerID, activityID uint, year int) models.CreditSubmission {
	key := models.ClaimKeyFor(practitionerID, activityID, year)
	return models.CreditSubmission{
		PractitionerID:   practitionerID,
		ActivityID:       activityID,
		ActivityTitle:    "Ethics workshop",
		ActivityCategory: models.ActivityCategoryWorkshop,
		CreditValue:      10,
		RequestedCredit:  10,
		Status:           models.SubmissionStatusPending,
		PeriodYear:       year,
		ClaimKey:         &key,
	}
}

func TestSubmissionRepositoryCreateRejectsDuplicateClaimKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	activity := seedActivity(t, db, models.Activity{CreditValue: 10, Active: true})

	first := pendingSubmission(7, activity.ID, 2024)
	require.NoError(t, repo.Create(ctx, &first))

	second := pendingSubmission(7, activity.ID, 2024)
	err := repo.Create(ctx, &second)
	require.ErrorIs(t, err, ErrUniqueViolation)

	otherYear := pendingSubmission(7, activity.ID, 2025)
	require.NoError(t, repo.Create(ctx, &otherYear))
}

func TestSubmissionRepositoryDecideOnlyTransitionsPending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	activity := seedActivity(t, db, models.Activity{CreditValue: 10, Active: true})

	submission := pendingSubmission(7, activity.ID, 2024)
	require.NoError(t, repo.Create(ctx, &submission))

	decidedAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	applied, err := repo.Decide(ctx, Decision{
		SubmissionID: submission.ID,
		Status:       models.SubmissionStatusApproved,
		CreditValue:  ptr(12),
		ReviewerID:   99,
		DecidedAt:    decidedAt,
	})
	require.NoError(t, err)
	require.True(t, applied)

	stored, err := repo.GetByID(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusApproved, stored.Status)
	require.Equal(t, 12, stored.CreditValue)
	require.Equal(t, 10, stored.RequestedCredit)
	require.NotNil(t, stored.ReviewerID)
	require.Equal(t, uint(99), *stored.ReviewerID)
	require.NotNil(t, stored.DecidedAt)

	applied, err = repo.Decide(ctx, Decision{
		SubmissionID: submission.ID,
		Status:       models.SubmissionStatusRejected,
		ReviewerID:   100,
		DecidedAt:    decidedAt.Add(time.Hour),
	})
	require.NoError(t, err)
	require.False(t, applied)

	stored, err = repo.GetByID(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusApproved, stored.Status)
}

func TestSubmissionRepositoryRejectionFreesClaimSlot(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	activity := seedActivity(t, db, models.Activity{CreditValue: 10, Active: true})

	submission := pendingSubmission(7, activity.ID, 2024)
	require.NoError(t, repo.Create(ctx, &submission))

	applied, err := repo.Decide(ctx, Decision{
		SubmissionID:   submission.ID,
		Status:         models.SubmissionStatusRejected,
		ReviewerID:     99,
		ModeratorNotes: "certificate unreadable",
		DecidedAt:      time.Now().UTC(),
	})
	require.NoError(t, err)
	require.True(t, applied)

	rejected, err := repo.GetByID(ctx, submission.ID)
	require.NoError(t, err)
	require.Nil(t, rejected.ClaimKey)
	require.Equal(t, "certificate unreadable", rejected.ModeratorNotes)

	_, err = repo.FindActiveClaim(ctx, 7, activity.ID, 2024)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	resubmission := pendingSubmission(7, activity.ID, 2024)
	require.NoError(t, repo.Create(ctx, &resubmission))
}

func TestSubmissionRepositoryCreateIfAbsentIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	activity := seedActivity(t, db, models.Activity{CreditValue: 5, Active: true, LinkedCourseID: ptr(uint(31))})

	build := func() models.CreditSubmission {
		row := approvedSubmission(7, activity.ID, 5, 2024, time.Now().UTC())
		row.IsAutomatic = true
		row.AutomaticKey = ptr(models.AutomaticKeyFor(7, activity.ID))
		return row
	}

	first := build()
	created, err := repo.CreateIfAbsent(ctx, &first)
	require.NoError(t, err)
	require.True(t, created)

	second := build()
	created, err = repo.CreateIfAbsent(ctx, &second)
	require.NoError(t, err)
	require.False(t, created)

	var count int64
	require.NoError(t, db.Model(&models.CreditSubmission{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	existing, err := repo.FindAutomatic(ctx, 7, activity.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, existing.ID)
}

func TestSubmissionRepositoryListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	activity := seedActivity(t, db, models.Activity{CreditValue: 10, Active: true})
	other := seedActivity(t, db, models.Activity{Title: "Journal club", CreditValue: 3, Active: true})

	rows := []models.CreditSubmission{
		pendingSubmission(1, activity.ID, 2024),
		pendingSubmission(1, other.ID, 2024),
		pendingSubmission(2, activity.ID, 2024),
		approvedSubmission(1, activity.ID, 10, 2023, time.Now().UTC()),
	}
	for i := range rows {
		require.NoError(t, repo.Create(ctx, &rows[i]))
	}

	items, total, err := repo.List(ctx, SubmissionFilter{PractitionerID: ptr(uint(1))})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, items, 3)

	items, total, err = repo.List(ctx, SubmissionFilter{
		PractitionerID: ptr(uint(1)),
		Status:         ptr(models.SubmissionStatusPending),
		PeriodYear:     ptr(2024),
		Page:           1,
		PageSize:       1,
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 1)

	_, total, err = repo.List(ctx, SubmissionFilter{IsAutomatic: ptr(true)})
	require.NoError(t, err)
	require.Zero(t, total)
}
