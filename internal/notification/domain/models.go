package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type IntentType string

const (
	IntentBookingTransition IntentType = "booking_transition"
	IntentReturnRequested   IntentType = "return_requested"
	IntentReturnResolved    IntentType = "return_resolved"
	IntentIssueReported     IntentType = "issue_reported"
	IntentIssueResolved     IntentType = "issue_resolved"
)

// NotificationIntent is an outbox row recording that a booking event
// should be fanned out to the listed recipients. Delivery is owned by a
// downstream dispatcher, not this service.
type NotificationIntent struct {
	ID         string            `gorm:"primaryKey;type:text"`
	BookingID  snowflake.ID      `gorm:"not null;index"`
	Type       IntentType        `gorm:"type:text;not null"`
	Recipients datatypes.JSON    `gorm:"type:jsonb"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb"`
	Published  bool              `gorm:"not null;default:false"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (NotificationIntent) TableName() string { return "notification_intents" }
