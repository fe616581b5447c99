package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/comparepco/rentalcore/internal/booking/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, booking *domain.Booking) error {
	if booking == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Create(booking).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	var booking domain.Booking
	err := db.WithContext(ctx).First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

// FindByIDForUpdate locks the row for the rest of the transaction.
// sqlite serializes writers itself, so the locking clause is skipped
// there.
func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	stmt := db.WithContext(ctx)
	if db.Dialector != nil && db.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var booking domain.Booking
	err := stmt.First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, booking *domain.Booking) error {
	if booking == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE bookings
		 SET status = ?, documents_complete = ?, updated_at = ?
		 WHERE id = ?`,
		booking.Status,
		booking.DocumentsComplete,
		booking.UpdatedAt,
		booking.ID,
	).Error
}

func (r *repo) FindLiveReturnRequest(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*domain.ReturnRequest, error) {
	var request domain.ReturnRequest
	err := db.WithContext(ctx).
		Where("booking_id = ? AND status IN ?", bookingID, []domain.ReturnStatus{
			domain.ReturnStatusPending,
			domain.ReturnStatusApproved,
		}).
		Order("requested_at DESC").
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *repo) FindLatestReturnRequest(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*domain.ReturnRequest, error) {
	var request domain.ReturnRequest
	err := db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("requested_at DESC").
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *repo) InsertReturnRequest(ctx context.Context, db *gorm.DB, request *domain.ReturnRequest) error {
	if request == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Create(request).Error
}

func (r *repo) UpdateReturnRequest(ctx context.Context, db *gorm.DB, request *domain.ReturnRequest) error {
	if request == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE return_requests
		 SET status = ?, resolved_at = ?, resolved_by = ?
		 WHERE id = ?`,
		request.Status,
		request.ResolvedAt,
		request.ResolvedBy,
		request.ID,
	).Error
}

func (r *repo) FindIssueByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Issue, error) {
	var issue domain.Issue
	err := db.WithContext(ctx).First(&issue, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &issue, nil
}

func (r *repo) FindIssuesByBooking(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) ([]domain.Issue, error) {
	var issues []domain.Issue
	err := db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC, id ASC").
		Find(&issues).Error
	if err != nil {
		return nil, err
	}
	return issues, nil
}

func (r *repo) InsertIssue(ctx context.Context, db *gorm.DB, issue *domain.Issue) error {
	if issue == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Create(issue).Error
}

func (r *repo) UpdateIssue(ctx context.Context, db *gorm.DB, issue *domain.Issue) error {
	if issue == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE issues
		 SET status = ?, resolved_at = ?, resolved_by = ?, resolution_notes = ?, updated_at = ?
		 WHERE id = ?`,
		issue.Status,
		issue.ResolvedAt,
		issue.ResolvedBy,
		issue.ResolutionNotes,
		issue.UpdatedAt,
		issue.ID,
	).Error
}
