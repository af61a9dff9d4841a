package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/credit-ledger-api/internal/models"
)

// ActivityFilter narrows catalog listings.
type ActivityFilter struct {
	IncludeInactive bool
	Category        string
	Search          string
}

// ActivityRepository persists the activity catalog.
type ActivityRepository interface {
	List(ctx context.Context, filter ActivityFilter) ([]models.Activity, error)
	GetByID(ctx context.Context, id uint) (models.Activity, error)
	GetByLinkedCourse(ctx context.Context, courseID uint) (models.Activity, error)
	LinkedCourseTaken(ctx context.Context, courseID uint, excludeID uint) (bool, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	SetActive(ctx context.Context, id uint, active bool) error
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository instantiates a GORM-backed catalog repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]models.Activity, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{})

	if !filter.IncludeInactive {
		query = query.Where("active = ?", true)
	}

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var activities []models.Activity
	if err := query.Order("category ASC").Order("title ASC").Find(&activities).Error; err != nil {
		return nil, err
	}

	return activities, nil
}

func (r *activityRepository) GetByID(ctx context.Context, id uint) (models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).First(&activity, id).Error; err != nil {
		return models.Activity{}, err
	}

	return activity, nil
}

func (r *activityRepository) GetByLinkedCourse(ctx context.Context, courseID uint) (models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).
		Where("linked_course_id = ?", courseID).
		First(&activity).Error; err != nil {
		return models.Activity{}, err
	}

	return activity, nil
}

func (r *activityRepository) LinkedCourseTaken(ctx context.Context, courseID uint, excludeID uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{}).Where("linked_course_id = ?", courseID)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return translateUniqueViolation(r.db.WithContext(ctx).Create(activity).Error)
}

func (r *activityRepository) Update(ctx context.Context, activity *models.Activity) error {
	return translateUniqueViolation(r.db.WithContext(ctx).Save(activity).Error)
}

func (r *activityRepository) SetActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("id = ?", id).
		Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
