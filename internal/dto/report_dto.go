package dto

import "time"

// PeriodTotalResponse reports a practitioner's approved credits for one year.
type PeriodTotalResponse struct {
	PractitionerID uint    `json:"practitioner_id"`
	Year           int     `json:"year"`
	Total          int64   `json:"total"`
	Target         int     `json:"target"`
	Progress       float64 `json:"progress"`
}

// CreditSummaryResponse is the practitioner dashboard headline.
type CreditSummaryResponse struct {
	PractitionerID      uint    `json:"practitioner_id"`
	Year                int     `json:"year"`
	PeriodTotal         int64   `json:"period_total"`
	Target              int     `json:"target"`
	Progress            float64 `json:"progress"`
	ApprovedCount       int64   `json:"approved_count"`
	PendingCount        int64   `json:"pending_count"`
	RejectedCount       int64   `json:"rejected_count"`
	LifetimeCredits     int64   `json:"lifetime_credits"`
	HistoricalPoints    float64 `json:"historical_points"`
	PersonalTotal       float64 `json:"personal_total"`
	Rank                int     `json:"rank"`
	RankedPractitioners int     `json:"ranked_practitioners"`
}

// HistoryEntry is one row of a practitioner's personal credit history.
type HistoryEntry struct {
	Kind         string     `json:"kind"`
	Year         int        `json:"year"`
	Title        string     `json:"title"`
	Category     string     `json:"category,omitempty"`
	Credits      float64    `json:"credits"`
	IsAutomatic  bool       `json:"is_automatic"`
	SubmissionID *uint      `json:"submission_id,omitempty"`
	HistoricalID *uint      `json:"historical_id,omitempty"`
	OccurredAt   *time.Time `json:"occurred_at"`
}

// LeaderboardEntry is one ranked practitioner.
type LeaderboardEntry struct {
	Rank           int        `json:"rank"`
	PractitionerID uint       `json:"practitioner_id"`
	Name           string     `json:"name"`
	Total          int64      `json:"total"`
	FirstDecidedAt *time.Time `json:"first_decided_at"`
}

// LeaderboardRequest filters the ranking.
type LeaderboardRequest struct {
	Year  *int `query:"year" validate:"omitempty,gte=1900,lte=2100"`
	Limit int  `query:"limit" validate:"gte=0,lte=500"`
}
