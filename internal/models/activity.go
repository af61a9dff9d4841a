package models

import "time"

// Activity categories accepted by the catalog.
const (
	ActivityCategoryCourse      = "course"
	ActivityCategoryConference  = "conference"
	ActivityCategoryWorkshop    = "workshop"
	ActivityCategoryMentorship  = "mentorship"
	ActivityCategoryResearch    = "research"
	ActivityCategoryPublication = "publication"
	ActivityCategoryOther       = "other"
)

// MeritBasedCredit marks an activity whose credit value is assigned by the moderator on approval.
const MeritBasedCredit = 0

// Activity is a creditable catalog entry.
type Activity struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Title            string    `gorm:"size:255;not null" json:"title"`
	Description      string    `gorm:"type:text;not null" json:"description"`
	Category         string    `gorm:"size:32;not null;index" json:"category"`
	CreditValue      int       `gorm:"not null;default:0" json:"credit_value"`
	EvidenceRequired bool      `gorm:"not null;default:false" json:"evidence_required"`
	Active           bool      `gorm:"not null;index" json:"active"`
	LinkedCourseID   *uint     `gorm:"uniqueIndex" json:"linked_course_id"`
	CreatedBy        *uint     `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsMeritBased reports whether the credit value is decided at approval time.
func (a Activity) IsMeritBased() bool {
	return a.CreditValue == MeritBasedCredit
}

// AllowsAutomaticCredit reports whether course completions may credit this activity.
func (a Activity) AllowsAutomaticCredit() bool {
	return a.Active && a.LinkedCourseID != nil
}

// ActivityCategories lists every valid category in display order.
func ActivityCategories() []string {
	return []string{
		ActivityCategoryCourse,
		ActivityCategoryConference,
		ActivityCategoryWorkshop,
		ActivityCategoryMentorship,
		ActivityCategoryResearch,
		ActivityCategoryPublication,
		ActivityCategoryOther,
	}
}
