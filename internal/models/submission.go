package models

import (
	"fmt"
	"time"
)

// CreditSubmission is a ledger row: one practitioner's claim against one activity for one period.
type CreditSubmission struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	PractitionerID    uint       `gorm:"not null;index:idx_credit_submissions_practitioner_year,priority:1" json:"practitioner_id"`
	ActivityID        uint       `gorm:"not null;index" json:"activity_id"`
	ActivityTitle     string     `gorm:"size:255;not null" json:"activity_title"`
	ActivityCategory  string     `gorm:"size:32;not null" json:"activity_category"`
	CreditValue       int        `gorm:"not null;default:0" json:"credit_value"`
	RequestedCredit   int        `gorm:"not null;default:0" json:"requested_credit"`
	MeritBased        bool       `gorm:"not null;default:false" json:"merit_based"`
	Status            string     `gorm:"size:16;not null;index" json:"status"`
	Notes             string     `gorm:"type:text" json:"notes"`
	ModeratorNotes    string     `gorm:"type:text" json:"moderator_notes"`
	EvidenceReference string     `gorm:"size:1024" json:"evidence_reference"`
	EvidenceName      string     `gorm:"size:255" json:"evidence_name"`
	IsAutomatic       bool       `gorm:"not null;default:false" json:"is_automatic"`
	CourseID          *uint      `json:"course_id"`
	PeriodYear        int        `gorm:"not null;index:idx_credit_submissions_practitioner_year,priority:2" json:"period_year"`
	ReviewerID        *uint      `json:"reviewer_id"`
	DecidedAt         *time.Time `json:"decided_at"`
	ClaimKey          *string    `gorm:"size:64;uniqueIndex" json:"-"`
	AutomaticKey      *string    `gorm:"size:64;uniqueIndex" json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Activity          Activity   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

const (
	// SubmissionStatusPending indicates the claim awaits a moderator decision.
	SubmissionStatusPending = "pending"
	// SubmissionStatusApproved indicates the claim counts towards totals.
	SubmissionStatusApproved = "approved"
	// SubmissionStatusRejected indicates the claim was declined and contributes nothing.
	SubmissionStatusRejected = "rejected"
)

// IsDecided reports whether the submission has left the pending state.
func (s CreditSubmission) IsDecided() bool {
	return s.Status != SubmissionStatusPending
}

// ContributingCredit returns the credit counted by totals.
func (s CreditSubmission) ContributingCredit() int {
	if s.Status != SubmissionStatusApproved {
		return 0
	}
	return s.CreditValue
}

// ClaimKeyFor builds the key that allows one non-rejected claim per practitioner, activity and period.
func ClaimKeyFor(practitionerID, activityID uint, year int) string {
	return fmt.Sprintf("%d:%d:%d", practitionerID, activityID, year)
}

// AutomaticKeyFor builds the key that allows one automatic credit per practitioner and activity.
func AutomaticKeyFor(practitionerID, activityID uint) string {
	return fmt.Sprintf("%d:%d", practitionerID, activityID)
}
