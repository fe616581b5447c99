package service

import (
	"fmt"
	"math"
	"time"

	"github.com/comparepco/rentalcore/internal/config"
	"github.com/comparepco/rentalcore/internal/payment/domain"
)

// BookingTerms carries the slice of a booking the fold needs: the
// one-time amount the driver owes and when it falls due.
type BookingTerms struct {
	TotalAmountCents int64
	StartDate        time.Time
}

// Reconcile folds a booking's payment events and its active schedule
// into a summary. The fold is pure: identical inputs give identical
// output regardless of event order, and the only notion of "now" is
// the one passed in.
func Reconcile(terms BookingTerms, events []domain.PaymentEvent, schedule *domain.RecurringSchedule, now time.Time, cfg config.UrgencyConfig) (domain.PaymentSummary, error) {
	summary := domain.PaymentSummary{PaymentStatus: domain.PaymentStatusPending}

	for i := range events {
		event := events[i]
		if err := validateEvent(event); err != nil {
			return domain.PaymentSummary{}, err
		}

		switch event.Kind {
		case domain.KindCharge:
			if event.Status.Settled() {
				summary.TotalPaidCents += event.AmountCents
				if laterEvent(&event, summary.LastPaymentEvent) {
					last := event
					summary.LastPaymentEvent = &last
				}
			}
		case domain.KindRefund:
			if event.Status == domain.EventStatusRefunded || event.Status.Settled() {
				// Refund amounts are negative, so adding them
				// subtracts from the total.
				summary.TotalPaidCents += event.AmountCents
			}
		}
	}

	if schedule != nil && schedule.Status == domain.ScheduleStatusActive {
		summary.IsRecurring = true
		next := schedule.CycleEnd
		summary.NextPaymentDate = &next

		days := daysUntil(now, next)
		summary.DaysUntilNextPayment = &days
		summary.DueMessage = dueMessage(days, next, cfg)
		summary.PaymentStatus = recurringStatus(summary.TotalPaidCents, schedule.AmountPerCycleCents, days)
		return summary, nil
	}

	summary.PaymentStatus = oneTimeStatus(terms, summary.TotalPaidCents, now)
	return summary, nil
}

func validateEvent(event domain.PaymentEvent) error {
	malformed := (event.Kind == domain.KindCharge && event.AmountCents < 0) ||
		(event.Kind == domain.KindRefund && event.AmountCents >= 0)
	if !malformed {
		return nil
	}
	return &domain.MalformedEventError{
		EventID:     event.ID,
		Kind:        event.Kind,
		AmountCents: event.AmountCents,
	}
}

// laterEvent picks the newer of two settled charges: latest occurredAt
// wins, equal timestamps break on the lexically highest id.
func laterEvent(candidate, current *domain.PaymentEvent) bool {
	if current == nil {
		return true
	}
	if candidate.OccurredAt.After(current.OccurredAt) {
		return true
	}
	if candidate.OccurredAt.Equal(current.OccurredAt) {
		return candidate.ID.String() > current.ID.String()
	}
	return false
}

// daysUntil is the ceiling of the distance to at in whole days,
// negative when at is in the past.
func daysUntil(now, at time.Time) int {
	return int(math.Ceil(at.Sub(now).Hours() / 24))
}

func recurringStatus(totalPaid, amountPerCycle int64, days int) domain.PaymentStatus {
	if days < 0 {
		return domain.PaymentStatusOverdue
	}
	if totalPaid > 0 && totalPaid >= amountPerCycle {
		return domain.PaymentStatusPaid
	}
	return domain.PaymentStatusPending
}

// oneTimeStatus covers non-recurring bookings: paid once the required
// charge settles, overdue once the start date passes with the charge
// still outstanding. Zero-valued terms mean no charge is required and
// stay pending.
func oneTimeStatus(terms BookingTerms, totalPaid int64, now time.Time) domain.PaymentStatus {
	if terms.TotalAmountCents <= 0 {
		return domain.PaymentStatusPending
	}
	if totalPaid >= terms.TotalAmountCents {
		return domain.PaymentStatusPaid
	}
	if !terms.StartDate.IsZero() && !now.Before(terms.StartDate) {
		return domain.PaymentStatusOverdue
	}
	return domain.PaymentStatusPending
}

// dueMessage buckets the distance to the next charge for display.
// Boundaries are inclusive and configurable; the defaults put
// "next week" at 7-13 days and a literal date at 14 or more.
func dueMessage(days int, next time.Time, cfg config.UrgencyConfig) string {
	nextWeekFrom := cfg.DueSoonDays
	if nextWeekFrom <= 0 {
		nextWeekFrom = config.DefaultUrgencyConfig().DueSoonDays
	}
	calendarFrom := cfg.DueNextWeekDays
	if calendarFrom <= nextWeekFrom {
		calendarFrom = config.DefaultUrgencyConfig().DueNextWeekDays
	}

	switch {
	case days < 0:
		return "overdue"
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days < nextWeekFrom:
		return fmt.Sprintf("in %d days", days)
	case days < calendarFrom:
		return "next week"
	default:
		return next.Format("2 Jan 2006")
	}
}
