package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/credit-ledger-api/internal/models"
)

// SubmissionFilter allows narrowing ledger queries.
type SubmissionFilter struct {
	PractitionerID *uint
	ActivityID     *uint
	Status         *string
	PeriodYear     *int
	IsAutomatic    *bool
	Page           int
	PageSize       int
}

// Decision carries the column values written by a moderator transition.
type Decision struct {
	SubmissionID   uint
	Status         string
	CreditValue    *int
	ReviewerID     uint
	ModeratorNotes string
	DecidedAt      time.Time
}

// SubmissionRepository defines ledger persistence operations.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.CreditSubmission, int64, error)
	GetByID(ctx context.Context, id uint) (models.CreditSubmission, error)
	FindActiveClaim(ctx context.Context, practitionerID, activityID uint, year int) (models.CreditSubmission, error)
	FindAutomatic(ctx context.Context, practitionerID, activityID uint) (models.CreditSubmission, error)
	Create(ctx context.Context, submission *models.CreditSubmission) error
	CreateIfAbsent(ctx context.Context, submission *models.CreditSubmission) (bool, error)
	Decide(ctx context.Context, decision Decision) (bool, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the ledger repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.CreditSubmission, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CreditSubmission{})

	if filter.PractitionerID != nil {
		query = query.Where("practitioner_id = ?", *filter.PractitionerID)
	}

	if filter.ActivityID != nil {
		query = query.Where("activity_id = ?", *filter.ActivityID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.PeriodYear != nil {
		query = query.Where("period_year = ?", *filter.PeriodYear)
	}

	if filter.IsAutomatic != nil {
		query = query.Where("is_automatic = ?", *filter.IsAutomatic)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var submissions []models.CreditSubmission
	if err := paginate(query, filter.Page, filter.PageSize).
		Order("created_at DESC").
		Order("id DESC").
		Find(&submissions).Error; err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.CreditSubmission, error) {
	var submission models.CreditSubmission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.CreditSubmission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) FindActiveClaim(ctx context.Context, practitionerID, activityID uint, year int) (models.CreditSubmission, error) {
	var submission models.CreditSubmission
	if err := r.db.WithContext(ctx).
		Where("practitioner_id = ?", practitionerID).
		Where("activity_id = ?", activityID).
		Where("period_year = ?", year).
		Where("status <> ?", models.SubmissionStatusRejected).
		Order("created_at DESC").
		First(&submission).Error; err != nil {
		return models.CreditSubmission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) FindAutomatic(ctx context.Context, practitionerID, activityID uint) (models.CreditSubmission, error) {
	var submission models.CreditSubmission
	if err := r.db.WithContext(ctx).
		Where("practitioner_id = ?", practitionerID).
		Where("activity_id = ?", activityID).
		Where("is_automatic = ?", true).
		First(&submission).Error; err != nil {
		return models.CreditSubmission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.CreditSubmission) error {
	return translateUniqueViolation(r.db.WithContext(ctx).Create(submission).Error)
}

// CreateIfAbsent inserts the row unless one of its unique keys is already taken.
func (r *submissionRepository) CreateIfAbsent(ctx context.Context, submission *models.CreditSubmission) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(submission)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

// Decide transitions a pending manual submission. It reports false when no pending row matched.
func (r *submissionRepository) Decide(ctx context.Context, decision Decision) (bool, error) {
	updates := map[string]interface{}{
		"status":          decision.Status,
		"reviewer_id":     decision.ReviewerID,
		"moderator_notes": decision.ModeratorNotes,
		"decided_at":      decision.DecidedAt,
		"updated_at":      decision.DecidedAt,
	}
	if decision.CreditValue != nil {
		updates["credit_value"] = *decision.CreditValue
	}
	if decision.Status == models.SubmissionStatusRejected {
		updates["claim_key"] = nil
	}

	res := r.db.WithContext(ctx).
		Model(&models.CreditSubmission{}).
		Where("id = ? AND status = ? AND is_automatic = ?", decision.SubmissionID, models.SubmissionStatusPending, false).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}
