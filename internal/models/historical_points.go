package models

import "time"

// HistoricalPoints is a legacy carry-over row migrated from the previous system.
type HistoricalPoints struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PractitionerID  *uint     `gorm:"index" json:"practitioner_id"`
	SourceFirstName string    `gorm:"size:128" json:"source_first_name"`
	SourceLastName  string    `gorm:"size:128" json:"source_last_name"`
	Year            int       `gorm:"not null;index" json:"year"`
	Points          float64   `gorm:"not null" json:"points"`
	Description     string    `gorm:"size:255" json:"description"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName keeps the plural table name stable.
func (HistoricalPoints) TableName() string {
	return "historical_points"
}
