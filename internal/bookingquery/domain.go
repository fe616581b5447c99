package bookingquery

import (
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/comparepco/rentalcore/internal/booking/domain"
	paymentdomain "github.com/comparepco/rentalcore/internal/payment/domain"
	"github.com/comparepco/rentalcore/internal/urgency"
)

// Filter is the recognized option set for booking list views. Absent
// or empty options match everything; provided options AND together.
type Filter struct {
	Search          string     `json:"search,omitempty"`
	Status          string     `json:"status,omitempty"`
	PaymentStatus   string     `json:"payment_status,omitempty"`
	DateStart       *time.Time `json:"date_start,omitempty"`
	DateEnd         *time.Time `json:"date_end,omitempty"`
	VehicleCategory string     `json:"vehicle_category,omitempty"`
	UrgencyOnly     bool       `json:"urgency_only,omitempty"`
	SortBy          string     `json:"sort_by,omitempty"`
}

// EnrichedBooking is a booking annotated with everything the list
// screens derive: the recomputed payment figures, the approval
// urgency, and the transitions available from the current status.
type EnrichedBooking struct {
	bookingdomain.Booking

	Payment              paymentdomain.PaymentSummary  `json:"payment"`
	Urgency              urgency.Level                 `json:"urgency"`
	AvailableTransitions []bookingdomain.BookingStatus `json:"available_transitions"`
}

// Snapshot is the materialized input to Query: the bookings plus
// their payment associations, fetched by the caller in one pass.
type Snapshot struct {
	Bookings  []bookingdomain.Booking
	Events    map[snowflake.ID][]paymentdomain.PaymentEvent
	Schedules map[snowflake.ID]*paymentdomain.RecurringSchedule
}
