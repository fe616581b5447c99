package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/comparepco/rentalcore/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.PaymentEvent) error {
	if event == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) FindEventsByBooking(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) ([]domain.PaymentEvent, error) {
	var events []domain.PaymentEvent
	err := db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("occurred_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repo) FindActiveSchedule(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*domain.RecurringSchedule, error) {
	var schedule domain.RecurringSchedule
	err := db.WithContext(ctx).
		Where("booking_id = ? AND status = ?", bookingID, domain.ScheduleStatusActive).
		Order("created_at DESC").
		First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}

func (r *repo) InsertSchedule(ctx context.Context, db *gorm.DB, schedule *domain.RecurringSchedule) error {
	if schedule == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Create(schedule).Error
}

func (r *repo) DeactivateSchedules(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE recurring_schedules
		 SET status = ?, updated_at = ?
		 WHERE booking_id = ? AND status = ?`,
		domain.ScheduleStatusInactive,
		time.Now().UTC(),
		bookingID,
		domain.ScheduleStatusActive,
	).Error
}
