package dto

import (
	"time"

	"github.com/noah-isme/credit-ledger-api/internal/models"
)

// HistoricalImportRow reports the outcome for one parsed spreadsheet row.
type HistoricalImportRow struct {
	Line           int     `json:"line"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Year           int     `json:"year"`
	Points         float64 `json:"points"`
	PractitionerID *uint   `json:"practitioner_id"`
	Status         string  `json:"status"`
	Message        string  `json:"message,omitempty"`
}

// HistoricalImportResponse summarises an import run.
type HistoricalImportResponse struct {
	Imported  int                   `json:"imported"`
	Matched   int                   `json:"matched"`
	Unmatched int                   `json:"unmatched"`
	Rejected  int                   `json:"rejected"`
	DryRun    bool                  `json:"dry_run"`
	Rows      []HistoricalImportRow `json:"rows"`
}

// HistoricalPointsResponse serialises a legacy carry-over row.
type HistoricalPointsResponse struct {
	ID              uint      `json:"id"`
	PractitionerID  *uint     `json:"practitioner_id"`
	SourceFirstName string    `json:"source_first_name"`
	SourceLastName  string    `json:"source_last_name"`
	Year            int       `json:"year"`
	Points          float64   `json:"points"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewHistoricalPointsResponse converts a legacy row into a DTO.
func NewHistoricalPointsResponse(model models.HistoricalPoints) HistoricalPointsResponse {
	return HistoricalPointsResponse{
		ID:              model.ID,
		PractitionerID:  model.PractitionerID,
		SourceFirstName: model.SourceFirstName,
		SourceLastName:  model.SourceLastName,
		Year:            model.Year,
		Points:          model.Points,
		Description:     model.Description,
		CreatedAt:       model.CreatedAt,
	}
}
