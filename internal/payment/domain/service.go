package domain

import (
	"context"
	"time"
)

type Service interface {
	// RecordEvent persists an event handed over by the external
	// payment collaborator. Events are append-only.
	RecordEvent(ctx context.Context, req RecordEventRequest) (PaymentEvent, error)

	// ReconcileByBooking loads the booking's events and active
	// schedule and folds them into a summary.
	ReconcileByBooking(ctx context.Context, bookingID string) (PaymentSummary, error)

	// ActivateSchedule makes the given cadence the booking's single
	// active schedule, deactivating any prior one.
	ActivateSchedule(ctx context.Context, req ActivateScheduleRequest) (RecurringSchedule, error)

	DeactivateSchedule(ctx context.Context, bookingID string) error
	ListEvents(ctx context.Context, bookingID string) ([]PaymentEvent, error)
}

type RecordEventRequest struct {
	BookingID   string      `json:"booking_id"`
	Kind        EventKind   `json:"kind"`
	Status      EventStatus `json:"status"`
	AmountCents int64       `json:"amount_cents"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

type ActivateScheduleRequest struct {
	BookingID           string    `json:"booking_id"`
	AmountPerCycleCents int64     `json:"amount_per_cycle_cents"`
	CycleEnd            time.Time `json:"cycle_end"`
}
