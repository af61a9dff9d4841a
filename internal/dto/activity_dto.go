package dto

import (
	"time"

	"github.com/noah-isme/credit-ledger-api/internal/models"
)

// ActivityRequest carries the editable catalog fields for create and update.
type ActivityRequest struct {
	Title            string `json:"title" validate:"required,min=1,max=255"`
	Description      string `json:"description" validate:"required,min=1"`
	Category         string `json:"category" validate:"required,oneof=course conference workshop mentorship research publication other"`
	CreditValue      int    `json:"credit_value" validate:"gte=0,lte=1000"`
	EvidenceRequired bool   `json:"evidence_required"`
	LinkedCourseID   *uint  `json:"linked_course_id" validate:"omitempty,gt=0"`
}

// ActivityActiveRequest toggles catalog visibility.
type ActivityActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// ActivityFilter describes catalog query parameters.
type ActivityFilter struct {
	IncludeInactive bool   `query:"include_inactive"`
	Category        string `query:"category" validate:"omitempty,oneof=course conference workshop mentorship research publication other"`
	Search          string `query:"search" validate:"omitempty,max=120"`
}

// ActivityResponse is the catalog entry returned to clients.
type ActivityResponse struct {
	ID               uint      `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	CreditValue      int       `json:"credit_value"`
	MeritBased       bool      `json:"merit_based"`
	EvidenceRequired bool      `json:"evidence_required"`
	Active           bool      `json:"active"`
	LinkedCourseID   *uint     `json:"linked_course_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewActivityResponse converts a catalog model into a DTO.
func NewActivityResponse(model models.Activity) ActivityResponse {
	return ActivityResponse{
		ID:               model.ID,
		Title:            model.Title,
		Description:      model.Description,
		Category:         model.Category,
		CreditValue:      model.CreditValue,
		MeritBased:       model.IsMeritBased(),
		EvidenceRequired: model.EvidenceRequired,
		Active:           model.Active,
		LinkedCourseID:   model.LinkedCourseID,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

// NewActivityResponseSlice converts catalog models into DTOs.
func NewActivityResponseSlice(items []models.Activity) []ActivityResponse {
	responses := make([]ActivityResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewActivityResponse(item))
	}

	return responses
}
