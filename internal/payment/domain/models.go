package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type EventKind string

const (
	KindCharge EventKind = "charge"
	KindRefund EventKind = "refund"
)

type EventStatus string

const (
	EventStatusPending   EventStatus = "pending"
	EventStatusSucceeded EventStatus = "succeeded"
	EventStatusPaid      EventStatus = "paid"
	EventStatusConfirmed EventStatus = "confirmed"
	EventStatusFailed    EventStatus = "failed"
	EventStatusRefunded  EventStatus = "refunded"
)

// Settled reports whether a status counts as money having moved.
// succeeded, paid and confirmed come from different upstream
// processors and mean the same thing.
func (s EventStatus) Settled() bool {
	return s == EventStatusSucceeded || s == EventStatusPaid || s == EventStatusConfirmed
}

// PaymentEvent is an immutable record of money moving against a
// booking. Corrections are new events, never edits: a refund is a
// refund-kind event with a negative amount.
type PaymentEvent struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	BookingID snowflake.ID `gorm:"not null;index"`

	Kind        EventKind   `gorm:"type:text;not null"`
	Status      EventStatus `gorm:"type:text;not null"`
	AmountCents int64       `gorm:"not null"`

	OccurredAt time.Time `gorm:"not null;index"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PaymentEvent) TableName() string { return "payment_events" }

type ScheduleStatus string

const (
	ScheduleStatusActive   ScheduleStatus = "active"
	ScheduleStatusInactive ScheduleStatus = "inactive"
)

// RecurringSchedule describes an auto-billing cadence. At most one
// active schedule exists per booking; activating a new one deactivates
// the prior one.
type RecurringSchedule struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	BookingID snowflake.ID `gorm:"not null;index"`

	AmountPerCycleCents int64          `gorm:"not null"`
	CycleEnd            time.Time      `gorm:"not null"`
	Status              ScheduleStatus `gorm:"type:text;not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (RecurringSchedule) TableName() string { return "recurring_schedules" }

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

// PaymentSummary is the derived view of a booking's money position.
// It is recomputed from the event stream on every read; a stored copy
// is never authoritative.
type PaymentSummary struct {
	TotalPaidCents       int64         `json:"total_paid_cents"`
	IsRecurring          bool          `json:"is_recurring"`
	NextPaymentDate      *time.Time    `json:"next_payment_date,omitempty"`
	DaysUntilNextPayment *int          `json:"days_until_next_payment,omitempty"`
	PaymentStatus        PaymentStatus `json:"payment_status"`
	LastPaymentEvent     *PaymentEvent `json:"last_payment_event,omitempty"`
	DueMessage           string        `json:"due_message,omitempty"`
}
