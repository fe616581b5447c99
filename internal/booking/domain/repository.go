package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, booking *Booking) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Booking, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Booking, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, booking *Booking) error

	FindLiveReturnRequest(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*ReturnRequest, error)
	FindLatestReturnRequest(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*ReturnRequest, error)
	InsertReturnRequest(ctx context.Context, db *gorm.DB, request *ReturnRequest) error
	UpdateReturnRequest(ctx context.Context, db *gorm.DB, request *ReturnRequest) error

	FindIssueByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Issue, error)
	FindIssuesByBooking(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) ([]Issue, error)
	InsertIssue(ctx context.Context, db *gorm.DB, issue *Issue) error
	UpdateIssue(ctx context.Context, db *gorm.DB, issue *Issue) error
}
