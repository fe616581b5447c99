package bookingquery

import (
	"sort"
	"strings"
	"time"

	bookingdomain "github.com/comparepco/rentalcore/internal/booking/domain"
	"github.com/comparepco/rentalcore/internal/config"
	paymentdomain "github.com/comparepco/rentalcore/internal/payment/domain"
	paymentservice "github.com/comparepco/rentalcore/internal/payment/service"
	"github.com/comparepco/rentalcore/internal/urgency"
)

// Enrich annotates one booking with its derived payment summary,
// approval urgency, and reachable statuses. It never mutates its
// inputs.
func Enrich(
	booking bookingdomain.Booking,
	events []paymentdomain.PaymentEvent,
	schedule *paymentdomain.RecurringSchedule,
	now time.Time,
	cfg config.UrgencyConfig,
) (EnrichedBooking, error) {
	terms := paymentservice.BookingTerms{
		TotalAmountCents: booking.TotalAmountCents,
		StartDate:        booking.StartDate,
	}
	summary, err := paymentservice.Reconcile(terms, events, schedule, now, cfg)
	if err != nil {
		return EnrichedBooking{}, err
	}

	return EnrichedBooking{
		Booking:              booking,
		Payment:              summary,
		Urgency:              urgency.ScoreDeadline(booking.ApprovalDeadline, now, cfg),
		AvailableTransitions: bookingdomain.AllowedTargets(booking.Status),
	}, nil
}

// Query enriches every booking in the snapshot and applies the filter
// as an AND of its provided predicates. The result is freshly
// allocated and keeps the snapshot's order unless a sort key is
// supplied.
func Query(snap Snapshot, filter Filter, now time.Time, cfg config.UrgencyConfig) ([]EnrichedBooking, error) {
	out := make([]EnrichedBooking, 0, len(snap.Bookings))
	for _, booking := range snap.Bookings {
		enriched, err := Enrich(booking, snap.Events[booking.ID], snap.Schedules[booking.ID], now, cfg)
		if err != nil {
			return nil, err
		}
		if matches(enriched, filter) {
			out = append(out, enriched)
		}
	}

	applySort(out, filter.SortBy)
	return out, nil
}

func matches(b EnrichedBooking, filter Filter) bool {
	if filter.Status != "" && string(b.Status) != filter.Status {
		return false
	}
	if filter.PaymentStatus != "" && string(b.Payment.PaymentStatus) != filter.PaymentStatus {
		return false
	}
	if filter.VehicleCategory != "" && !strings.EqualFold(b.VehicleCategory, filter.VehicleCategory) {
		return false
	}
	if filter.DateStart != nil && b.StartDate.Before(*filter.DateStart) {
		return false
	}
	if filter.DateEnd != nil && b.StartDate.After(*filter.DateEnd) {
		return false
	}
	if filter.UrgencyOnly && urgency.Rank(b.Urgency) < urgency.Rank(urgency.LevelWarning) {
		return false
	}
	if filter.Search != "" && !matchesSearch(b, filter.Search) {
		return false
	}
	return true
}

// matchesSearch checks the driver name, vehicle make/model/plate and
// partner name, case-insensitively.
func matchesSearch(b EnrichedBooking, search string) bool {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return true
	}

	haystacks := []string{
		b.DriverName,
		b.PartnerName,
		b.VehicleMake,
		b.VehicleModel,
		b.VehicleRegistration,
	}
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

func applySort(items []EnrichedBooking, sortBy string) {
	switch sortBy {
	case "start_date":
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].StartDate.Before(items[j].StartDate)
		})
	case "urgency":
		sort.SliceStable(items, func(i, j int) bool {
			return urgency.Rank(items[i].Urgency) > urgency.Rank(items[j].Urgency)
		})
	case "created_at":
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	}
}
