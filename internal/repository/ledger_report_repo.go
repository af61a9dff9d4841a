package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/credit-ledger-api/internal/models"
)

// LedgerEntry is the projection of an approved submission used by rankings.
type LedgerEntry struct {
	PractitionerID uint
	CreditValue    int
	DecidedAt      *time.Time
}

// StatusCount pairs a submission status with its row count.
type StatusCount struct {
	Status string
	Count  int64
}

// LedgerReportRepository exposes read-only aggregation queries over the ledger.
type LedgerReportRepository interface {
	SumApproved(ctx context.Context, practitionerID uint, year *int) (int64, error)
	CountByStatus(ctx context.Context, practitionerID uint, year int) ([]StatusCount, error)
	ListApproved(ctx context.Context, practitionerID uint) ([]models.CreditSubmission, error)
	ListApprovedEntries(ctx context.Context, year *int) ([]LedgerEntry, error)
}

type ledgerReportRepository struct {
	db *gorm.DB
}

// NewLedgerReportRepository constructs the reporting repository.
func NewLedgerReportRepository(db *gorm.DB) LedgerReportRepository {
	return &ledgerReportRepository{db: db}
}

func (r *ledgerReportRepository) approved(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.CreditSubmission{}).
		Where("status = ?", models.SubmissionStatusApproved)
}

func (r *ledgerReportRepository) SumApproved(ctx context.Context, practitionerID uint, year *int) (int64, error) {
	query := r.approved(ctx).Where("practitioner_id = ?", practitionerID)
	if year != nil {
		query = query.Where("period_year = ?", *year)
	}

	var total int64
	if err := query.Select("COALESCE(SUM(credit_value), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}

func (r *ledgerReportRepository) CountByStatus(ctx context.Context, practitionerID uint, year int) ([]StatusCount, error) {
	var counts []StatusCount
	if err := r.db.WithContext(ctx).
		Model(&models.CreditSubmission{}).
		Select("status, COUNT(*) AS count").
		Where("practitioner_id = ?", practitionerID).
		Where("period_year = ?", year).
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}

	return counts, nil
}

func (r *ledgerReportRepository) ListApproved(ctx context.Context, practitionerID uint) ([]models.CreditSubmission, error) {
	var submissions []models.CreditSubmission
	if err := r.approved(ctx).
		Where("practitioner_id = ?", practitionerID).
		Order("period_year DESC").
		Order("decided_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *ledgerReportRepository) ListApprovedEntries(ctx context.Context, year *int) ([]LedgerEntry, error) {
	query := r.approved(ctx).Select("practitioner_id, credit_value, decided_at")
	if year != nil {
		query = query.Where("period_year = ?", *year)
	}

	var entries []LedgerEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}
