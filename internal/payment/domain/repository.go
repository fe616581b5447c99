package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertEvent(ctx context.Context, db *gorm.DB, event *PaymentEvent) error
	FindEventsByBooking(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) ([]PaymentEvent, error)

	FindActiveSchedule(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*RecurringSchedule, error)
	InsertSchedule(ctx context.Context, db *gorm.DB, schedule *RecurringSchedule) error
	DeactivateSchedules(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) error
}
