package domain

import (
	"errors"
	"fmt"
)

var (
	ErrBookingNotFound = errors.New("booking_not_found")
	ErrReturnNotFound  = errors.New("return_request_not_found")
	ErrIssueNotFound   = errors.New("issue_not_found")

	ErrInvalidBookingID = errors.New("invalid_booking_id")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrInvalidActor     = errors.New("invalid_actor")
	ErrInvalidSeverity  = errors.New("invalid_severity")
	ErrInvalidDecision  = errors.New("invalid_decision")
	ErrEmptyReason      = errors.New("empty_reason")
	ErrEmptyDescription = errors.New("empty_description")

	// ErrInvalidTransition is the sentinel every TransitionError
	// unwraps to; match with errors.Is.
	ErrInvalidTransition = errors.New("invalid_transition")

	// ErrInvalidState marks an operation attempted while the booking
	// is not in a state that permits it.
	ErrInvalidState = errors.New("invalid_state")

	// ErrDuplicateRequest marks a new return request submitted while
	// one is still live.
	ErrDuplicateRequest = errors.New("duplicate_request")

	// ErrAlreadyResolved marks re-resolution of a terminal return
	// request.
	ErrAlreadyResolved = errors.New("already_resolved")

	// ErrCompletionNotDue marks an active→completed attempt before
	// the end date with no approved return request.
	ErrCompletionNotDue = errors.New("completion_not_due")

	// ErrActivationIncomplete marks a →active attempt while documents
	// or the required payment are still outstanding.
	ErrActivationIncomplete = errors.New("activation_incomplete")
)

// TransitionError reports an attempted status change absent from the
// transition table, carrying the source/target pair for rendering.
type TransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// NewTransitionError builds the failure value for an illegal edge.
func NewTransitionError(from, to BookingStatus) error {
	return &TransitionError{From: from, To: to}
}
