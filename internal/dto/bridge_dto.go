package dto

import "time"

// CourseCompletedEvent is emitted by the learning platform when a practitioner finishes a course.
type CourseCompletedEvent struct {
	PractitionerID uint       `json:"practitioner_id" validate:"required,gt=0"`
	CourseID       uint       `json:"course_id" validate:"required,gt=0"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// CourseCompletedResult describes what the bridge did with a completion.
type CourseCompletedResult struct {
	Outcome    string              `json:"outcome"`
	ActivityID *uint               `json:"activity_id,omitempty"`
	Submission *SubmissionResponse `json:"submission,omitempty"`
}

// EvidenceUploadResponse is the opaque reference returned after storing proof.
type EvidenceUploadResponse struct {
	EvidenceReference string `json:"evidence_reference"`
	EvidenceName      string `json:"evidence_name"`
	ContentType       string `json:"content_type"`
}
