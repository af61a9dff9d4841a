package repository

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/credit-ledger-api/internal/models"
)

func TestHistoricalPointsRepositoryBatchAndFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHistoricalPointsRepository(db)

	matched := uint(3)
	rows := []models.HistoricalPoints{
		{PractitionerID: &matched, SourceFirstName: "Anna", SourceLastName: "de Vries", Year: 2019, Points: 12.5},
		{PractitionerID: &matched, SourceFirstName: "Anna", SourceLastName: "de Vries", Year: 2020, Points: 7},
		{SourceFirstName: "Unknown", SourceLastName: "Person", Year: 2020, Points: 4},
	}
	require.NoError(t, repo.CreateBatch(ctx, rows))
	require.NoError(t, repo.CreateBatch(ctx, nil))

	own, err := repo.List(ctx, HistoricalPointsFilter{PractitionerID: &matched})
	require.NoError(t, err)
	require.Len(t, own, 2)
	require.Equal(t, 2020, own[0].Year)

	unmatched, err := repo.List(ctx, HistoricalPointsFilter{Unmatched: true})
	require.NoError(t, err)
	require.Len(t, unmatched, 1)
	require.Nil(t, unmatched[0].PractitionerID)

	year := 2020
	byYear, err := repo.List(ctx, HistoricalPointsFilter{Year: &year})
	require.NoError(t, err)
	require.Len(t, byYear, 2)

	sum, err := repo.SumForPractitioner(ctx, matched)
	require.NoError(t, err)
	require.InDelta(t, 19.5, sum, 0.0001)

	none, err := repo.SumForPractitioner(ctx, 404)
	require.NoError(t, err)
	require.Zero(t, none)
}
