package dto

import (
	"time"

	"github.com/noah-isme/credit-ledger-api/internal/models"
)

// SubmissionCreateRequest is the practitioner's claim payload.
type SubmissionCreateRequest struct {
	ActivityID        uint   `json:"activity_id" validate:"required,gt=0"`
	RequestedCredit   *int   `json:"requested_credit" validate:"omitempty,gte=0,lte=1000"`
	Notes             string `json:"notes" validate:"max=4000"`
	EvidenceReference string `json:"evidence_reference" validate:"omitempty,max=1024"`
	EvidenceName      string `json:"evidence_name" validate:"omitempty,max=255"`
	PeriodYear        int    `json:"period_year" validate:"omitempty,gte=1900,lte=2100"`
}

// SubmissionDecisionRequest is the moderator's decision payload.
type SubmissionDecisionRequest struct {
	Outcome        string `json:"outcome" validate:"required,oneof=approved rejected"`
	FinalCredit    *int   `json:"final_credit" validate:"omitempty,gte=0,lte=1000"`
	ModeratorNotes string `json:"moderator_notes" validate:"max=4000"`
}

// AutomaticCreditRequest records a system-generated credit against a course-linked activity.
type AutomaticCreditRequest struct {
	PractitionerID uint `json:"practitioner_id" validate:"required,gt=0"`
	ActivityID     uint `json:"activity_id" validate:"required,gt=0"`
	Credit         int  `json:"credit" validate:"gte=0,lte=1000"`
	PeriodYear     int  `json:"period_year" validate:"required,gte=1900,lte=2100"`
}

// SubmissionFilter describes query string filters for listing ledger rows.
type SubmissionFilter struct {
	PractitionerID *uint   `query:"practitioner_id"`
	ActivityID     *uint   `query:"activity_id"`
	Status         *string `query:"status" validate:"omitempty,oneof=pending approved rejected"`
	PeriodYear     *int    `query:"year" validate:"omitempty,gte=1900,lte=2100"`
	IsAutomatic    *bool   `query:"automatic"`
	Page           int     `query:"page" validate:"gte=0"`
	PageSize       int     `query:"page_size" validate:"gte=0,lte=200"`
}

// SubmissionResponse is returned to API clients when viewing ledger rows.
type SubmissionResponse struct {
	ID                uint       `json:"id"`
	PractitionerID    uint       `json:"practitioner_id"`
	ActivityID        uint       `json:"activity_id"`
	ActivityTitle     string     `json:"activity_title"`
	ActivityCategory  string     `json:"activity_category"`
	CreditValue       int        `json:"credit_value"`
	RequestedCredit   int        `json:"requested_credit"`
	MeritBased        bool       `json:"merit_based"`
	Status            string     `json:"status"`
	Notes             string     `json:"notes"`
	ModeratorNotes    string     `json:"moderator_notes"`
	EvidenceReference string     `json:"evidence_reference"`
	EvidenceName      string     `json:"evidence_name"`
	IsAutomatic       bool       `json:"is_automatic"`
	CourseID          *uint      `json:"course_id"`
	PeriodYear        int        `json:"period_year"`
	ReviewerID        *uint      `json:"reviewer_id"`
	DecidedAt         *time.Time `json:"decided_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// SubmissionListResponse wraps a page of ledger rows.
type SubmissionListResponse struct {
	Items      []SubmissionResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// NewSubmissionResponse converts a ledger model into a DTO.
func NewSubmissionResponse(model models.CreditSubmission) SubmissionResponse {
	return SubmissionResponse{
		ID:                model.ID,
		PractitionerID:    model.PractitionerID,
		ActivityID:        model.ActivityID,
		ActivityTitle:     model.ActivityTitle,
		ActivityCategory:  model.ActivityCategory,
		CreditValue:       model.CreditValue,
		RequestedCredit:   model.RequestedCredit,
		MeritBased:        model.MeritBased,
		Status:            model.Status,
		Notes:             model.Notes,
		ModeratorNotes:    model.ModeratorNotes,
		EvidenceReference: model.EvidenceReference,
		EvidenceName:      model.EvidenceName,
		IsAutomatic:       model.IsAutomatic,
		CourseID:          model.CourseID,
		PeriodYear:        model.PeriodYear,
		ReviewerID:        model.ReviewerID,
		DecidedAt:         model.DecidedAt,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}

// NewSubmissionResponseSlice converts ledger models into DTOs.
func NewSubmissionResponseSlice(items []models.CreditSubmission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(items))
	for _, submission := range items {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
