package domain

import (
	"context"
	"time"

	"github.com/comparepco/rentalcore/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateBookingRequest) (Booking, error)
	GetByID(ctx context.Context, id string) (Booking, error)
	List(ctx context.Context, req ListBookingRequest) (ListBookingResponse, error)

	// Transition applies one edge of the status table on behalf of
	// actor. Same-status calls succeed without touching the row.
	Transition(ctx context.Context, req TransitionRequest) (Booking, error)

	RequestReturn(ctx context.Context, req RequestReturnRequest) (ReturnRequest, error)
	ResolveReturn(ctx context.Context, req ResolveReturnRequest) (ReturnRequest, error)

	ReportIssue(ctx context.Context, req ReportIssueRequest) (Issue, error)
	ResolveIssue(ctx context.Context, req ResolveIssueRequest) (Issue, error)
	ListIssues(ctx context.Context, bookingID string) ([]Issue, error)
}

type CreateBookingRequest struct {
	DriverID  string `json:"driver_id"`
	PartnerID string `json:"partner_id"`
	VehicleID string `json:"vehicle_id"`

	TermWeeks        int       `json:"term_weeks"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`

	ApprovalDeadline *time.Time `json:"approval_deadline,omitempty"`

	DriverName          string `json:"driver_name"`
	PartnerName         string `json:"partner_name"`
	VehicleMake         string `json:"vehicle_make"`
	VehicleModel        string `json:"vehicle_model"`
	VehicleRegistration string `json:"vehicle_registration"`
	VehicleCategory     string `json:"vehicle_category"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

type ListBookingRequest struct {
	Status    string
	DriverID  string
	PartnerID string
	PageSize  int32
	PageToken string
}

type ListBookingResponse struct {
	Bookings []Booking
	PageInfo pagination.PageInfo
}

type TransitionRequest struct {
	BookingID string        `json:"booking_id"`
	Target    BookingStatus `json:"target"`
	Actor     Actor         `json:"actor"`
}

type RequestReturnRequest struct {
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason"`
	Actor     Actor  `json:"actor"`
}

type ReturnDecision string

const (
	ReturnDecisionApproved ReturnDecision = "approved"
	ReturnDecisionRejected ReturnDecision = "rejected"
)

type ResolveReturnRequest struct {
	BookingID string         `json:"booking_id"`
	Decision  ReturnDecision `json:"decision"`
	Actor     Actor          `json:"actor"`
}

type ReportIssueRequest struct {
	BookingID   string        `json:"booking_id"`
	Severity    IssueSeverity `json:"severity"`
	Description string        `json:"description"`
	Reporter    Actor         `json:"reporter"`
}

type ResolveIssueRequest struct {
	IssueID  string  `json:"issue_id"`
	Resolver Actor   `json:"resolver"`
	Notes    *string `json:"notes,omitempty"`
}
