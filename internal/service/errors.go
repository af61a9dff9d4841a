package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrEvidenceRequired indicates the activity requires proof and none was supplied.
	ErrEvidenceRequired = errors.New("evidence is required for this activity")
	// ErrDuplicateClaim indicates an active claim already exists for the practitioner, activity and period.
	ErrDuplicateClaim = errors.New("an active claim already exists for this activity and period")
	// ErrInvalidState indicates the submission is not pending anymore.
	ErrInvalidState = errors.New("submission is not pending")
	// ErrInvalidActivity indicates the activity cannot receive the requested kind of credit.
	ErrInvalidActivity = errors.New("activity cannot be credited")
	// ErrActivityNotFound indicates the catalog entry does not exist.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrSubmissionNotFound indicates the ledger row does not exist.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrUnsupportedImport indicates an import file that cannot be parsed.
	ErrUnsupportedImport = errors.New("unsupported import file")
	// ErrUnsupportedEvidence indicates an evidence upload of a disallowed type.
	ErrUnsupportedEvidence = errors.New("unsupported evidence file type")
)

func validationErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
