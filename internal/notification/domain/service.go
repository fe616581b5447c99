package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type EmitRequest struct {
	BookingID  snowflake.ID
	Type       IntentType
	Recipients []string
	Metadata   map[string]any
}

// Service records notification intents alongside the writes that
// trigger them. Emit accepts the caller's transaction so the intent
// commits or rolls back with the booking change.
type Service interface {
	Emit(ctx context.Context, tx *gorm.DB, req EmitRequest) error
	ListByBooking(ctx context.Context, bookingID snowflake.ID) ([]NotificationIntent, error)
}
