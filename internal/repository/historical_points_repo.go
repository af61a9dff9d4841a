package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/credit-ledger-api/internal/models"
)

// HistoricalPointsFilter narrows legacy point listings.
type HistoricalPointsFilter struct {
	PractitionerID *uint
	Unmatched      bool
	Year           *int
}

// HistoricalPointsRepository stores legacy carry-over rows.
type HistoricalPointsRepository interface {
	CreateBatch(ctx context.Context, rows []models.HistoricalPoints) error
	List(ctx context.Context, filter HistoricalPointsFilter) ([]models.HistoricalPoints, error)
	SumForPractitioner(ctx context.Context, practitionerID uint) (float64, error)
}

type historicalPointsRepository struct {
	db *gorm.DB
}

// NewHistoricalPointsRepository constructs the repository.
func NewHistoricalPointsRepository(db *gorm.DB) HistoricalPointsRepository {
	return &historicalPointsRepository{db: db}
}

func (r *historicalPointsRepository) CreateBatch(ctx context.Context, rows []models.HistoricalPoints) error {
	if len(rows) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, 200).Error
	})
}

func (r *historicalPointsRepository) List(ctx context.Context, filter HistoricalPointsFilter) ([]models.HistoricalPoints, error) {
	query := r.db.WithContext(ctx).Model(&models.HistoricalPoints{})

	if filter.PractitionerID != nil {
		query = query.Where("practitioner_id = ?", *filter.PractitionerID)
	} else if filter.Unmatched {
		query = query.Where("practitioner_id IS NULL")
	}

	if filter.Year != nil {
		query = query.Where("year = ?", *filter.Year)
	}

	var rows []models.HistoricalPoints
	if err := query.Order("year DESC").Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *historicalPointsRepository) SumForPractitioner(ctx context.Context, practitionerID uint) (float64, error) {
	var total float64
	if err := r.db.WithContext(ctx).
		Model(&models.HistoricalPoints{}).
		Select("COALESCE(SUM(points), 0)").
		Where("practitioner_id = ?", practitionerID).
		Scan(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}
