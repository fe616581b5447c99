package domain

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidEventID     = errors.New("invalid_event_id")
	ErrInvalidKind        = errors.New("invalid_kind")
	ErrInvalidEventStatus = errors.New("invalid_event_status")
	ErrScheduleNotFound   = errors.New("schedule_not_found")
	ErrInvalidCycleEnd    = errors.New("invalid_cycle_end")
	ErrInvalidAmount      = errors.New("invalid_amount")

	// ErrMalformedEvent is the sentinel every MalformedEventError
	// unwraps to; match with errors.Is.
	ErrMalformedEvent = errors.New("malformed_event")
)

// MalformedEventError reports a sign/kind mismatch on a payment event:
// a negative charge or a non-negative refund. It signals a
// data-integrity problem rather than letting totals silently skew.
type MalformedEventError struct {
	EventID     snowflake.ID
	Kind        EventKind
	AmountCents int64
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed payment event %s: %s amount %d", e.EventID, e.Kind, e.AmountCents)
}

func (e *MalformedEventError) Unwrap() error { return ErrMalformedEvent }
