package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/comparepco/rentalcore/internal/booking/domain"
	"github.com/comparepco/rentalcore/internal/clock"
	"github.com/comparepco/rentalcore/internal/config"
	"github.com/comparepco/rentalcore/internal/lockguard"
	"github.com/comparepco/rentalcore/internal/observability/metrics"
	paymentdomain "github.com/comparepco/rentalcore/internal/payment/domain"
	"github.com/comparepco/rentalcore/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID   *snowflake.Node
	clock   clock.Clock
	repo    paymentdomain.Repository
	urgency *config.UrgencyConfigHolder

	bookingRepo repository.Repository[bookingdomain.Booking]

	locker  *lockguard.Locker
	metrics *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    paymentdomain.Repository
	Urgency *config.UrgencyConfigHolder

	Locker  *lockguard.Locker `optional:"true"`
	Metrics *metrics.Metrics
}

func NewService(p ServiceParam) paymentdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("payment.service"),

		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		urgency: p.Urgency,

		bookingRepo: repository.ProvideStore[bookingdomain.Booking](p.DB),

		locker:  p.Locker,
		metrics: p.Metrics,
	}
}

func (s *Service) RecordEvent(ctx context.Context, req paymentdomain.RecordEventRequest) (paymentdomain.PaymentEvent, error) {
	bookingID, err := s.parseID(req.BookingID)
	if err != nil {
		return paymentdomain.PaymentEvent{}, err
	}

	if req.Kind != paymentdomain.KindCharge && req.Kind != paymentdomain.KindRefund {
		return paymentdomain.PaymentEvent{}, paymentdomain.ErrInvalidKind
	}
	if !isValidEventStatus(req.Status) {
		return paymentdomain.PaymentEvent{}, paymentdomain.ErrInvalidEventStatus
	}

	event := paymentdomain.PaymentEvent{
		ID:          s.genID.Generate(),
		BookingID:   bookingID,
		Kind:        req.Kind,
		Status:      req.Status,
		AmountCents: req.AmountCents,
		OccurredAt:  req.OccurredAt,
		CreatedAt:   s.clock.Now(),
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = event.CreatedAt
	}

	// Reject sign/kind mismatches at the door instead of poisoning
	// every later reconciliation.
	if err := validateEvent(event); err != nil {
		return paymentdomain.PaymentEvent{}, err
	}

	if err := s.repo.InsertEvent(ctx, s.db, &event); err != nil {
		return paymentdomain.PaymentEvent{}, err
	}

	s.log.Info("payment event recorded",
		zap.String("event_id", event.ID.String()),
		zap.String("booking_id", bookingID.String()),
		zap.String("kind", string(event.Kind)),
		zap.String("status", string(event.Status)),
		zap.Int64("amount_cents", event.AmountCents),
	)
	return event, nil
}

func (s *Service) ReconcileByBooking(ctx context.Context, bookingID string) (paymentdomain.PaymentSummary, error) {
	id, err := s.parseID(bookingID)
	if err != nil {
		return paymentdomain.PaymentSummary{}, err
	}

	booking, err := s.bookingRepo.FindOne(ctx, &bookingdomain.Booking{ID: id})
	if err != nil {
		return paymentdomain.PaymentSummary{}, err
	}
	if booking == nil {
		return paymentdomain.PaymentSummary{}, bookingdomain.ErrBookingNotFound
	}

	events, err := s.repo.FindEventsByBooking(ctx, s.db, id)
	if err != nil {
		return paymentdomain.PaymentSummary{}, err
	}
	schedule, err := s.repo.FindActiveSchedule(ctx, s.db, id)
	if err != nil {
		return paymentdomain.PaymentSummary{}, err
	}

	terms := BookingTerms{
		TotalAmountCents: booking.TotalAmountCents,
		StartDate:        booking.StartDate,
	}
	summary, err := Reconcile(terms, events, schedule, s.clock.Now(), s.urgency.Get())
	if err != nil {
		return paymentdomain.PaymentSummary{}, err
	}

	s.metrics.RecordReconciliation(ctx, string(summary.PaymentStatus))
	return summary, nil
}

// ActivateSchedule enforces the single-active-schedule rule with
// last-writer-wins semantics: whatever was active before is
// deactivated in the same transaction.
func (s *Service) ActivateSchedule(ctx context.Context, req paymentdomain.ActivateScheduleRequest) (paymentdomain.RecurringSchedule, error) {
	bookingID, err := s.parseID(req.BookingID)
	if err != nil {
		return paymentdomain.RecurringSchedule{}, err
	}
	if req.AmountPerCycleCents <= 0 {
		return paymentdomain.RecurringSchedule{}, paymentdomain.ErrInvalidAmount
	}
	if req.CycleEnd.IsZero() {
		return paymentdomain.RecurringSchedule{}, paymentdomain.ErrInvalidCycleEnd
	}

	lockKey := "rentalcore:schedule:" + bookingID.String()
	token, err := s.locker.Acquire(ctx, lockKey)
	if err != nil {
		if errors.Is(err, lockguard.ErrLockHeld) {
			s.metrics.RecordGuardDenied(ctx, "activate_schedule")
		}
		return paymentdomain.RecurringSchedule{}, err
	}
	defer func() {
		if err := s.locker.Release(ctx, lockKey, token); err != nil {
			s.log.Warn("release schedule lock", zap.Error(err))
		}
	}()

	booking, err := s.bookingRepo.FindOne(ctx, &bookingdomain.Booking{ID: bookingID})
	if err != nil {
		return paymentdomain.RecurringSchedule{}, err
	}
	if booking == nil {
		return paymentdomain.RecurringSchedule{}, bookingdomain.ErrBookingNotFound
	}

	now := s.clock.Now()
	schedule := paymentdomain.RecurringSchedule{
		ID:        s.genID.Generate(),
		BookingID: bookingID,

		AmountPerCycleCents: req.AmountPerCycleCents,
		CycleEnd:            req.CycleEnd,
		Status:              paymentdomain.ScheduleStatusActive,

		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeactivateSchedules(ctx, tx, bookingID); err != nil {
			return err
		}
		return s.repo.InsertSchedule(ctx, tx, &schedule)
	}); err != nil {
		return paymentdomain.RecurringSchedule{}, err
	}

	s.log.Info("recurring schedule activated",
		zap.String("schedule_id", schedule.ID.String()),
		zap.String("booking_id", bookingID.String()),
		zap.Int64("amount_per_cycle_cents", schedule.AmountPerCycleCents),
	)
	return schedule, nil
}

func (s *Service) DeactivateSchedule(ctx context.Context, bookingID string) error {
	id, err := s.parseID(bookingID)
	if err != nil {
		return err
	}

	schedule, err := s.repo.FindActiveSchedule(ctx, s.db, id)
	if err != nil {
		return err
	}
	if schedule == nil {
		return paymentdomain.ErrScheduleNotFound
	}

	return s.repo.DeactivateSchedules(ctx, s.db, id)
}

func (s *Service) ListEvents(ctx context.Context, bookingID string) ([]paymentdomain.PaymentEvent, error) {
	id, err := s.parseID(bookingID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindEventsByBooking(ctx, s.db, id)
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, bookingdomain.ErrInvalidBookingID
	}
	return id, nil
}

func isValidEventStatus(status paymentdomain.EventStatus) bool {
	switch status {
	case paymentdomain.EventStatusPending,
		paymentdomain.EventStatusSucceeded,
		paymentdomain.EventStatusPaid,
		paymentdomain.EventStatusConfirmed,
		paymentdomain.EventStatusFailed,
		paymentdomain.EventStatusRefunded:
		return true
	default:
		return false
	}
}
