package domain

import (
	"errors"
	"strings"
)

var (
	// ErrSubmissionNotFound is returned when an assessment id has no stored row.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrQuestionnaireNotFound indicates the questionnaire bank could not be loaded.
	ErrQuestionnaireNotFound = errors.New("questionnaire not found")
	// ErrTokenNotFound is returned for continuation tokens that were never issued.
	ErrTokenNotFound = errors.New("continuation token not found")
	// ErrTokenExpired is returned when a continuation token is past its expiry.
	ErrTokenExpired = errors.New("continuation token expired")
	// ErrTokenUsed is returned when a continuation token was already redeemed.
	ErrTokenUsed = errors.New("continuation token already used")
	// ErrRateLimited is returned when an email address asks for links too often.
	ErrRateLimited = errors.New("too many continuation requests")
	// ErrAlreadyCompleted is returned when a completed submission is edited.
	ErrAlreadyCompleted = errors.New("submission already completed")
	// ErrForbidden is returned when an assessment is accessed without its key.
	ErrForbidden = errors.New("assessment access key missing or invalid")
	// ErrInvalidEmail rejects assessments started without a usable address.
	ErrInvalidEmail = errors.New("invalid email address")
)

// ValidationError lists the answers that blocked a final submission.
type ValidationError struct {
	Missing []string `json:"missing,omitempty"`
	Invalid []string `json:"invalid,omitempty"`
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(e.Invalid, ", "))
	}
	return "validation failed (" + strings.Join(parts, "; ") + ")"
}

// Empty reports whether no field failed validation.
func (e *ValidationError) Empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}
