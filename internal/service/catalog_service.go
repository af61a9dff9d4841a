package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/credit-ledger-api/internal/dto"
	"github.com/noah-isme/credit-ledger-api/internal/models"
	"github.com/noah-isme/credit-ledger-api/internal/repository"
)

// CatalogService manages the creditable activity catalog.
type CatalogService interface {
	List(ctx context.Context, filter dto.ActivityFilter) ([]dto.ActivityResponse, error)
	Get(ctx context.Context, id uint) (dto.ActivityResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.ActivityRequest) (dto.ActivityResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.ActivityRequest) (dto.ActivityResponse, error)
	SetActive(ctx context.Context, actor Actor, id uint, active bool) (dto.ActivityResponse, error)
}

type catalogService struct {
	activities repository.ActivityRepository
	validator  *validator.Validate
	audit      AuditRecorder
	logger     zerolog.Logger
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(activities repository.ActivityRepository, validate *validator.Validate, audit AuditRecorder, logger zerolog.Logger) CatalogService {
	return &catalogService{
		activities: activities,
		validator:  validate,
		audit:      audit,
		logger:     logger.With().Str("component", "catalog_service").Logger(),
	}
}

func (s *catalogService) List(ctx context.Context, filter dto.ActivityFilter) ([]dto.ActivityResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	activities, err := s.activities.List(ctx, repository.ActivityFilter{
		IncludeInactive: filter.IncludeInactive,
		Category:        filter.Category,
		Search:          filter.Search,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewActivityResponseSlice(activities), nil
}

func (s *catalogService) Get(ctx context.Context, id uint) (dto.ActivityResponse, error) {
	activity, err := s.load(ctx, id)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(activity), nil
}

func (s *catalogService) Create(ctx context.Context, actor Actor, payload dto.ActivityRequest) (dto.ActivityResponse, error) {
	if err := s.validate(ctx, 0, &payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	createdBy := actor.ID
	activity := models.Activity{Active: true, CreatedBy: &createdBy}
	applyActivityRequest(&activity, payload)

	if err := s.activities.Create(ctx, &activity); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return dto.ActivityResponse{}, validationErrorf("linked course %d is already attached to another activity", *payload.LinkedCourseID)
		}
		return dto.ActivityResponse{}, err
	}

	s.logger.Info().Uint("activity_id", activity.ID).Str("category", activity.Category).Msg("activity created")
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "activity.created",
		EntityType: "activity",
		EntityID:   &activity.ID,
		Metadata: map[string]interface{}{
			"title":        activity.Title,
			"credit_value": activity.CreditValue,
		},
	})

	return dto.NewActivityResponse(activity), nil
}

func (s *catalogService) Update(ctx context.Context, actor Actor, id uint, payload dto.ActivityRequest) (dto.ActivityResponse, error) {
	activity, err := s.load(ctx, id)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	if err := s.validate(ctx, id, &payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	previousCredit := activity.CreditValue
	applyActivityRequest(&activity, payload)

	if err := s.activities.Update(ctx, &activity); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return dto.ActivityResponse{}, validationErrorf("linked course %d is already attached to another activity", *payload.LinkedCourseID)
		}
		return dto.ActivityResponse{}, err
	}

	s.logger.Info().Uint("activity_id", activity.ID).Msg("activity updated")
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "activity.updated",
		EntityType: "activity",
		EntityID:   &activity.ID,
		Metadata: map[string]interface{}{
			"previous_credit_value": previousCredit,
			"credit_value":          activity.CreditValue,
		},
	})

	return dto.NewActivityResponse(activity), nil
}

func (s *catalogService) SetActive(ctx context.Context, actor Actor, id uint, active bool) (dto.ActivityResponse, error) {
	if err := s.activities.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	activity, err := s.load(ctx, id)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	action := "activity.disabled"
	if active {
		action = "activity.enabled"
	}
	s.logger.Info().Uint("activity_id", id).Bool("active", active).Msg("activity visibility changed")
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     action,
		EntityType: "activity",
		EntityID:   &activity.ID,
	})

	return dto.NewActivityResponse(activity), nil
}

func (s *catalogService) load(ctx context.Context, id uint) (models.Activity, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Activity{}, ErrActivityNotFound
		}
		return models.Activity{}, err
	}

	return activity, nil
}

func (s *catalogService) validate(ctx context.Context, id uint, payload *dto.ActivityRequest) error {
	payload.Title = cleanText(payload.Title)
	payload.Description = cleanText(payload.Description)

	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	if payload.LinkedCourseID != nil {
		taken, err := s.activities.LinkedCourseTaken(ctx, *payload.LinkedCourseID, id)
		if err != nil {
			return err
		}
		if taken {
			return validationErrorf("linked course %d is already attached to another activity", *payload.LinkedCourseID)
		}
	}

	return nil
}

func applyActivityRequest(activity *models.Activity, payload dto.ActivityRequest) {
	activity.Title = payload.Title
	activity.Description = payload.Description
	activity.Category = payload.Category
	activity.CreditValue = payload.CreditValue
	activity.EvidenceRequired = payload.EvidenceRequired
	activity.LinkedCourseID = payload.LinkedCourseID
}
