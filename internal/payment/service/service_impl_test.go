package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/comparepco/rentalcore/internal/booking/domain"
	"github.com/comparepco/rentalcore/internal/clock"
	"github.com/comparepco/rentalcore/internal/config"
	"github.com/comparepco/rentalcore/internal/payment/domain"
	"github.com/comparepco/rentalcore/internal/payment/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type paymentFixture struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
}

func setupPaymentService(t *testing.T) *paymentFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&bookingdomain.Booking{},
		&domain.PaymentEvent{},
		&domain.RecurringSchedule{},
	))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC))

	svc := NewService(ServiceParam{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fake,
		Repo:    repository.Provide(),
		Urgency: config.NewStaticUrgencyConfigHolder(config.DefaultUrgencyConfig()),
	})
	return &paymentFixture{svc: svc, db: db, node: node, clock: fake}
}

func (f *paymentFixture) seedBooking(t *testing.T, totalCents int64) bookingdomain.Booking {
	t.Helper()
	now := f.clock.Now()
	booking := bookingdomain.Booking{
		ID:               f.node.Generate(),
		DriverID:         f.node.Generate(),
		PartnerID:        f.node.Generate(),
		VehicleID:        f.node.Generate(),
		TermWeeks:        8,
		TotalAmountCents: totalCents,
		StartDate:        now.AddDate(0, 0, -3),
		EndDate:          now.AddDate(0, 0, 53),
		Status:           bookingdomain.StatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, f.db.Create(&booking).Error)
	return booking
}

func TestRecordEventValidation(t *testing.T) {
	f := setupPaymentService(t)
	ctx := context.Background()
	booking := f.seedBooking(t, 10000)

	_, err := f.svc.RecordEvent(ctx, domain.RecordEventRequest{
		BookingID:   booking.ID.String(),
		Kind:        "adjustment",
		Status:      domain.EventStatusSucceeded,
		AmountCents: 100,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidKind)

	_, err = f.svc.RecordEvent(ctx, domain.RecordEventRequest{
		BookingID:   booking.ID.String(),
		Kind:        domain.KindCharge,
		Status:      "settled",
		AmountCents: 100,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidEventStatus)

	_, err = f.svc.RecordEvent(ctx, domain.RecordEventRequest{
		BookingID:   booking.ID.String(),
		Kind:        domain.KindCharge,
		Status:      domain.EventStatusSucceeded,
		AmountCents: -100,
	})
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)

	_, err = f.svc.RecordEvent(ctx, domain.RecordEventRequest{
		BookingID:   booking.ID.String(),
		Kind:        domain.KindRefund,
		Status:      domain.EventStatusRefunded,
		AmountCents: 100,
	})
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)

	event, err := f.svc.RecordEvent(ctx, domain.RecordEventRequest{
		BookingID:   booking.ID.String(),
		Kind:        domain.KindCharge,
		Status:      domain.EventStatusSucceeded,
		AmountCents: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now(), event.OccurredAt)
}

func TestReconcileByBooking(t *testing.T) {
	f := setupPaymentService(t)
	ctx := context.Background()
	booking := f.seedBooking(t, 10000)

	_, err := f.svc.ReconcileByBooking(ctx, f.node.Generate().String())
	assert.ErrorIs(t, err, bookingdomain.ErrBookingNotFound)

	summary, err := f.svc.ReconcileByBooking(ctx, booking.ID.String())
	require.NoError(t, err)
	// Start date has passed with nothing settled.
	assert.Equal(t, domain.PaymentStatusOverdue, summary.PaymentStatus)

	_, err = f.svc.RecordEvent(ctx, domain.RecordEventRequest{
		BookingID:   booking.ID.String(),
		Kind:        domain.KindCharge,
		Status:      domain.EventStatusPaid,
		AmountCents: 10000,
	})
	require.NoError(t, err)

	summary, err = f.svc.ReconcileByBooking(ctx, booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(10000), summary.TotalPaidCents)
	assert.Equal(t, domain.PaymentStatusPaid, summary.PaymentStatus)
	assert.False(t, summary.IsRecurring)
}

func TestActivateScheduleLastWriterWins(t *testing.T) {
	f := setupPaymentService(t)
	ctx := context.Background()
	booking := f.seedBooking(t, 10000)

	_, err := f.svc.ActivateSchedule(ctx, domain.ActivateScheduleRequest{
		BookingID:           booking.ID.String(),
		AmountPerCycleCents: 0,
		CycleEnd:            f.clock.Now().AddDate(0, 0, 7),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.svc.ActivateSchedule(ctx, domain.ActivateScheduleRequest{
		BookingID:           booking.ID.String(),
		AmountPerCycleCents: 5000,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCycleEnd)

	first, err := f.svc.ActivateSchedule(ctx, domain.ActivateScheduleRequest{
		BookingID:           booking.ID.String(),
		AmountPerCycleCents: 5000,
		CycleEnd:            f.clock.Now().AddDate(0, 0, 7),
	})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	second, err := f.svc.ActivateSchedule(ctx, domain.ActivateScheduleRequest{
		BookingID:           booking.ID.String(),
		AmountPerCycleCents: 7500,
		CycleEnd:            f.clock.Now().AddDate(0, 0, 14),
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	var active []domain.RecurringSchedule
	require.NoError(t, f.db.
		Where("booking_id = ? AND status = ?", booking.ID, domain.ScheduleStatusActive).
		Find(&active).Error)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	summary, err := f.svc.ReconcileByBooking(ctx, booking.ID.String())
	require.NoError(t, err)
	assert.True(t, summary.IsRecurring)
	require.NotNil(t, summary.NextPaymentDate)
	assert.True(t, summary.NextPaymentDate.Equal(second.CycleEnd))
	require.NotNil(t, summary.DaysUntilNextPayment)
	assert.Equal(t, 14, *summary.DaysUntilNextPayment)
}

func TestDeactivateSchedule(t *testing.T) {
	f := setupPaymentService(t)
	ctx := context.Background()
	booking := f.seedBooking(t, 10000)

	err := f.svc.DeactivateSchedule(ctx, booking.ID.String())
	assert.ErrorIs(t, err, domain.ErrScheduleNotFound)

	_, err = f.svc.ActivateSchedule(ctx, domain.ActivateScheduleRequest{
		BookingID:           booking.ID.String(),
		AmountPerCycleCents: 5000,
		CycleEnd:            f.clock.Now().AddDate(0, 0, 7),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeactivateSchedule(ctx, booking.ID.String()))

	summary, err := f.svc.ReconcileByBooking(ctx, booking.ID.String())
	require.NoError(t, err)
	assert.False(t, summary.IsRecurring)
}

func TestListEventsOrdering(t *testing.T) {
	f := setupPaymentService(t)
	ctx := context.Background()
	booking := f.seedBooking(t, 10000)

	later := f.clock.Now()
	earlier := later.Add(-2 * time.Hour)

	_, err := f.svc.RecordEvent(ctx, domain.RecordEventRequest{
		BookingID:   booking.ID.String(),
		Kind:        domain.KindCharge,
		Status:      domain.EventStatusSucceeded,
		AmountCents: 200,
		OccurredAt:  later,
	})
	require.NoError(t, err)
	_, err = f.svc.RecordEvent(ctx, domain.RecordEventRequest{
		BookingID:   booking.ID.String(),
		Kind:        domain.KindCharge,
		Status:      domain.EventStatusSucceeded,
		AmountCents: 100,
		OccurredAt:  earlier,
	})
	require.NoError(t, err)

	events, err := f.svc.ListEvents(ctx, booking.ID.String())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(100), events[0].AmountCents)
	assert.Equal(t, int64(200), events[1].AmountCents)
}
