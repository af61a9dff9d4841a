package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/credit-ledger-api/internal/models"
)

// PractitionerRepository reads the practitioner directory.
type PractitionerRepository interface {
	GetByID(ctx context.Context, id uint) (models.Practitioner, error)
	ListByRoles(ctx context.Context, roles []string) ([]models.Practitioner, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.Practitioner, error)
	Create(ctx context.Context, practitioner *models.Practitioner) error
}

type practitionerRepository struct {
	db *gorm.DB
}

// NewPractitionerRepository constructs the directory repository.
func NewPractitionerRepository(db *gorm.DB) PractitionerRepository {
	return &practitionerRepository{db: db}
}

func (r *practitionerRepository) GetByID(ctx context.Context, id uint) (models.Practitioner, error) {
	var practitioner models.Practitioner
	if err := r.db.WithContext(ctx).First(&practitioner, id).Error; err != nil {
		return models.Practitioner{}, err
	}

	return practitioner, nil
}

func (r *practitionerRepository) ListByRoles(ctx context.Context, roles []string) ([]models.Practitioner, error) {
	query := r.db.WithContext(ctx).Model(&models.Practitioner{})
	if len(roles) > 0 {
		query = query.Where("role IN ?", roles)
	}

	var practitioners []models.Practitioner
	if err := query.Order("last_name ASC").Order("first_name ASC").Find(&practitioners).Error; err != nil {
		return nil, err
	}

	return practitioners, nil
}

func (r *practitionerRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.Practitioner, error) {
	if len(ids) == 0 {
		return []models.Practitioner{}, nil
	}

	var practitioners []models.Practitioner
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&practitioners).Error; err != nil {
		return nil, err
	}

	return practitioners, nil
}

func (r *practitionerRepository) Create(ctx context.Context, practitioner *models.Practitioner) error {
	return r.db.WithContext(ctx).Create(practitioner).Error
}
