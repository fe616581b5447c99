package service

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/comparepco/rentalcore/internal/config"
	"github.com/comparepco/rentalcore/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reconcileNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func chargeEvent(id int64, amount int64, status domain.EventStatus, occurredAt time.Time) domain.PaymentEvent {
	return domain.PaymentEvent{
		ID:          snowflake.ID(id),
		Kind:        domain.KindCharge,
		Status:      status,
		AmountCents: amount,
		OccurredAt:  occurredAt,
	}
}

func refundEvent(id int64, amount int64, occurredAt time.Time) domain.PaymentEvent {
	return domain.PaymentEvent{
		ID:          snowflake.ID(id),
		Kind:        domain.KindRefund,
		Status:      domain.EventStatusRefunded,
		AmountCents: amount,
		OccurredAt:  occurredAt,
	}
}

func defaultTerms() BookingTerms {
	return BookingTerms{
		TotalAmountCents: 10000,
		StartDate:        reconcileNow.AddDate(0, 0, -7),
	}
}

func TestReconcileEmptyEvents(t *testing.T) {
	summary, err := Reconcile(BookingTerms{}, nil, nil, reconcileNow, config.DefaultUrgencyConfig())
	require.NoError(t, err)

	assert.Equal(t, int64(0), summary.TotalPaidCents)
	assert.False(t, summary.IsRecurring)
	assert.Equal(t, domain.PaymentStatusPending, summary.PaymentStatus)
	assert.Nil(t, summary.NextPaymentDate)
	assert.Nil(t, summary.DaysUntilNextPayment)
	assert.Nil(t, summary.LastPaymentEvent)
}

func TestReconcileRefundSymmetry(t *testing.T) {
	charged := []domain.PaymentEvent{
		chargeEvent(1, 10000, domain.EventStatusSucceeded, reconcileNow.Add(-time.Hour)),
	}
	summary, err := Reconcile(defaultTerms(), charged, nil, reconcileNow, config.DefaultUrgencyConfig())
	require.NoError(t, err)
	assert.Equal(t, int64(10000), summary.TotalPaidCents)
	assert.Equal(t, domain.PaymentStatusPaid, summary.PaymentStatus)

	refunded := append(charged, refundEvent(2, -10000, reconcileNow))
	summary, err = Reconcile(defaultTerms(), refunded, nil, reconcileNow, config.DefaultUrgencyConfig())
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.TotalPaidCents)
}

func TestReconcileOrderIndependence(t *testing.T) {
	events := []domain.PaymentEvent{
		chargeEvent(1, 5000, domain.EventStatusSucceeded, reconcileNow.Add(-3*time.Hour)),
		chargeEvent(2, 2500, domain.EventStatusPaid, reconcileNow.Add(-time.Hour)),
		chargeEvent(3, 1000, domain.EventStatusPending, reconcileNow.Add(-30*time.Minute)),
		chargeEvent(4, 9999, domain.EventStatusFailed, reconcileNow.Add(-10*time.Minute)),
		refundEvent(5, -500, reconcileNow.Add(-5*time.Minute)),
	}

	permutations := [][]int{
		{0, 1, 2, 3, 4},
		{4, 3, 2, 1, 0},
		{2, 0, 4, 1, 3},
		{1, 4, 0, 3, 2},
	}

	for _, perm := range permutations {
		shuffled := make([]domain.PaymentEvent, 0, len(events))
		for _, idx := range perm {
			shuffled = append(shuffled, events[idx])
		}

		summary, err := Reconcile(defaultTerms(), shuffled, nil, reconcileNow, config.DefaultUrgencyConfig())
		require.NoError(t, err)
		assert.Equal(t, int64(7000), summary.TotalPaidCents)
		require.NotNil(t, summary.LastPaymentEvent)
		assert.Equal(t, snowflake.ID(2), summary.LastPaymentEvent.ID)
	}
}

func TestReconcileLastEventTieBreak(t *testing.T) {
	at := reconcileNow.Add(-time.Hour)
	events := []domain.PaymentEvent{
		chargeEvent(100, 1000, domain.EventStatusSucceeded, at),
		chargeEvent(900, 1000, domain.EventStatusSucceeded, at),
		chargeEvent(200, 1000, domain.EventStatusSucceeded, at),
	}

	summary, err := Reconcile(defaultTerms(), events, nil, reconcileNow, config.DefaultUrgencyConfig())
	require.NoError(t, err)
	require.NotNil(t, summary.LastPaymentEvent)
	assert.Equal(t, snowflake.ID(900), summary.LastPaymentEvent.ID)
}

func TestReconcilePendingAndFailedContributeZero(t *testing.T) {
	events := []domain.PaymentEvent{
		chargeEvent(1, 4000, domain.EventStatusPending, reconcileNow),
		chargeEvent(2, 6000, domain.EventStatusFailed, reconcileNow),
	}

	summary, err := Reconcile(defaultTerms(), events, nil, reconcileNow, config.DefaultUrgencyConfig())
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.TotalPaidCents)
	assert.Nil(t, summary.LastPaymentEvent)
}

func TestReconcileMalformedEvents(t *testing.T) {
	cases := []struct {
		name  string
		event domain.PaymentEvent
	}{
		{"negative charge", chargeEvent(1, -100, domain.EventStatusSucceeded, reconcileNow)},
		{"positive refund", domain.PaymentEvent{ID: 2, Kind: domain.KindRefund, Status: domain.EventStatusRefunded, AmountCents: 100, OccurredAt: reconcileNow}},
		{"zero refund", domain.PaymentEvent{ID: 3, Kind: domain.KindRefund, Status: domain.EventStatusRefunded, AmountCents: 0, OccurredAt: reconcileNow}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Reconcile(defaultTerms(), []domain.PaymentEvent{tc.event}, nil, reconcileNow, config.DefaultUrgencyConfig())
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedEvent)

			var mErr *domain.MalformedEventError
			require.ErrorAs(t, err, &mErr)
			assert.Equal(t, tc.event.ID, mErr.EventID)
		})
	}
}

func TestReconcileRecurringOverdue(t *testing.T) {
	schedule := &domain.RecurringSchedule{
		ID:                  snowflake.ID(1),
		AmountPerCycleCents: 25000,
		CycleEnd:            reconcileNow.AddDate(0, 0, -2),
		Status:              domain.ScheduleStatusActive,
	}

	summary, err := Reconcile(defaultTerms(), nil, schedule, reconcileNow, config.DefaultUrgencyConfig())
	require.NoError(t, err)

	assert.True(t, summary.IsRecurring)
	require.NotNil(t, summary.DaysUntilNextPayment)
	assert.Equal(t, -2, *summary.DaysUntilNextPayment)
	assert.Equal(t, "overdue", summary.DueMessage)
	assert.Equal(t, domain.PaymentStatusOverdue, summary.PaymentStatus)
}

func TestReconcileInactiveScheduleIsNotRecurring(t *testing.T) {
	schedule := &domain.RecurringSchedule{
		AmountPerCycleCents: 25000,
		CycleEnd:            reconcileNow.AddDate(0, 0, 7),
		Status:              domain.ScheduleStatusInactive,
	}

	summary, err := Reconcile(defaultTerms(), nil, schedule, reconcileNow, config.DefaultUrgencyConfig())
	require.NoError(t, err)
	assert.False(t, summary.IsRecurring)
	assert.Nil(t, summary.NextPaymentDate)
}

func TestReconcileRecurringPaidAndPending(t *testing.T) {
	schedule := &domain.RecurringSchedule{
		AmountPerCycleCents: 5000,
		CycleEnd:            reconcileNow.AddDate(0, 0, 3),
		Status:              domain.ScheduleStatusActive,
	}

	paid := []domain.PaymentEvent{
		chargeEvent(1, 5000, domain.EventStatusConfirmed, reconcileNow.Add(-time.Hour)),
	}
	summary, err := Reconcile(defaultTerms(), paid, schedule, reconcileNow, config.DefaultUrgencyConfig())
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, summary.PaymentStatus)

	summary, err = Reconcile(defaultTerms(), nil, schedule, reconcileNow, config.DefaultUrgencyConfig())
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, summary.PaymentStatus)
}

func TestReconcileOneTimeOverdueAfterStartDate(t *testing.T) {
	terms := BookingTerms{
		TotalAmountCents: 10000,
		StartDate:        reconcileNow.AddDate(0, 0, -1),
	}
	summary, err := Reconcile(terms, nil, nil, reconcileNow, config.DefaultUrgencyConfig())
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusOverdue, summary.PaymentStatus)

	terms.StartDate = reconcileNow.AddDate(0, 0, 1)
	summary, err = Reconcile(terms, nil, nil, reconcileNow, config.DefaultUrgencyConfig())
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, summary.PaymentStatus)
}

func TestDueMessageBuckets(t *testing.T) {
	cfg := config.DefaultUrgencyConfig()
	cases := []struct {
		days int
		want string
	}{
		{-5, "overdue"},
		{-1, "overdue"},
		{0, "today"},
		{1, "tomorrow"},
		{2, "in 2 days"},
		{6, "in 6 days"},
		{7, "next week"},
		{13, "next week"},
	}

	for _, tc := range cases {
		next := reconcileNow.AddDate(0, 0, tc.days)
		assert.Equalf(t, tc.want, dueMessage(tc.days, next, cfg), "days=%d", tc.days)
	}

	next := reconcileNow.AddDate(0, 0, 14)
	assert.Equal(t, next.Format("2 Jan 2006"), dueMessage(14, next, cfg))

	next = reconcileNow.AddDate(0, 0, 45)
	assert.Equal(t, next.Format("2 Jan 2006"), dueMessage(45, next, cfg))
}

func TestDaysUntilCeiling(t *testing.T) {
	assert.Equal(t, 1, daysUntil(reconcileNow, reconcileNow.Add(time.Hour)))
	assert.Equal(t, 0, daysUntil(reconcileNow, reconcileNow))
	assert.Equal(t, -2, daysUntil(reconcileNow, reconcileNow.Add(-48*time.Hour)))
	assert.Equal(t, 2, daysUntil(reconcileNow, reconcileNow.Add(25*time.Hour)))
}
