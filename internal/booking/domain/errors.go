package domain

import (
	"errors"
	"fmt"
)

// ErrorCode groups rejections into the coarse classes callers branch on.
type ErrorCode string

const (
	CodeValidation ErrorCode = "validation"
	CodeConflict   ErrorCode = "conflict"
	CodeNotFound   ErrorCode = "not_found"
)

// Stable machine-checkable reasons; every rejected transition carries one in
// addition to the human message.
const (
	ReasonMissingField        = "missing_field"
	ReasonDueInPast           = "due_in_past"
	ReasonIneligible          = "ineligible"
	ReasonAlreadyBooked       = "already_booked"
	ReasonAlreadyClaimed      = "already_claimed"
	ReasonGuardViolation      = "guard_violation"
	ReasonCancelWithin24      = "cancel_within_24h"
	ReasonNotAssigned         = "not_assigned_translator"
	ReasonMissingAdminComment = "missing_admin_comment"
	ReasonMissingSessionTime  = "missing_session_time"
)

// Error is a typed domain error. Code classifies it, Reason is the stable
// machine-checkable cause, Field names the offending input for validation
// failures.
type Error struct {
	Code    ErrorCode
	Reason  string
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s [%s]", e.Code, e.Reason, e.Message, e.Field)
	}
	return fmt.Sprintf("%s (%s): %s", e.Code, e.Reason, e.Message)
}

// NewValidationError reports a rejected input before any mutation.
func NewValidationError(reason, field, message string) *Error {
	return &Error{Code: CodeValidation, Reason: reason, Field: field, Message: message}
}

// NewConflict reports a transition rejected by current state; no mutation
// happened.
func NewConflict(reason, message string) *Error {
	return &Error{Code: CodeConflict, Reason: reason, Message: message}
}

// AsDomainError unwraps err into *Error if it is one.
func AsDomainError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

var (
	// ErrJobNotFound is returned when a job id does not exist.
	ErrJobNotFound = &Error{Code: CodeNotFound, Reason: "job_not_found", Message: "job not found"}

	// ErrTranslatorNotFound is returned when a translator id does not exist.
	ErrTranslatorNotFound = &Error{Code: CodeNotFound, Reason: "translator_not_found", Message: "translator not found"}

	// ErrAlreadyClaimed is returned when a claim loses the race: the job is no
	// longer pending or another translator already holds it.
	ErrAlreadyClaimed = &Error{Code: CodeConflict, Reason: ReasonAlreadyClaimed, Message: "booking already accepted by another translator"}

	// ErrNoCurrentAssignment is returned when an operation needs a current
	// translator and the job has none.
	ErrNoCurrentAssignment = &Error{Code: CodeConflict, Reason: "no_current_assignment", Message: "job has no current translator"}
)
