package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/credit-ledger-api/internal/models"
)

func TestActivityRepositoryListHidesInactiveByDefault(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)

	seedActivity(t, db, models.Activity{Title: "Ethics workshop", CreditValue: 6, Active: true})
	seedActivity(t, db, models.Activity{Title: "Retired webinar", Category: models.ActivityCategoryCourse, CreditValue: 2, Active: false})
	seedActivity(t, db, models.Activity{Title: "Case review", Category: models.ActivityCategoryMentorship, Active: true})

	active, err := repo.List(ctx, ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, active, 2)

	all, err := repo.List(ctx, ActivityFilter{IncludeInactive: true})
	require.NoError(t, err)
	require.Len(t, all, 3)

	searched, err := repo.List(ctx, ActivityFilter{IncludeInactive: true, Search: "WEBINAR"})
	require.NoError(t, err)
	require.Len(t, searched, 1)
	require.Equal(t, "Retired webinar", searched[0].Title)

	byCategory, err := repo.List(ctx, ActivityFilter{Category: models.ActivityCategoryMentorship})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	require.True(t, byCategory[0].IsMeritBased())
}

func TestActivityRepositoryLinkedCourse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)

	linked := seedActivity(t, db, models.Activity{Title: "Online module", CreditValue: 4, Active: true, LinkedCourseID: ptr(uint(42))})

	found, err := repo.GetByLinkedCourse(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, linked.ID, found.ID)
	require.True(t, found.AllowsAutomaticCredit())

	_, err = repo.GetByLinkedCourse(ctx, 43)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	taken, err := repo.LinkedCourseTaken(ctx, 42, 0)
	require.NoError(t, err)
	require.True(t, taken)

	taken, err = repo.LinkedCourseTaken(ctx, 42, linked.ID)
	require.NoError(t, err)
	require.False(t, taken)

	duplicate := models.Activity{Title: "Copy", Description: "copy", Category: models.ActivityCategoryCourse, Active: true, LinkedCourseID: ptr(uint(42))}
	require.ErrorIs(t, repo.Create(ctx, &duplicate), ErrUniqueViolation)
}

func TestActivityRepositorySetActive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)

	activity := seedActivity(t, db, models.Activity{CreditValue: 6, Active: true})

	require.NoError(t, repo.SetActive(ctx, activity.ID, false))

	stored, err := repo.GetByID(ctx, activity.ID)
	require.NoError(t, err)
	require.False(t, stored.Active)
	require.False(t, stored.AllowsAutomaticCredit())

	err = repo.SetActive(ctx, 999, true)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
