package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type BookingStatus string

const (
	StatusPendingPartnerApproval   BookingStatus = "pending_partner_approval"
	StatusPendingDriverApproval    BookingStatus = "pending_driver_approval"
	StatusPendingDocuments         BookingStatus = "pending_documents"
	StatusPendingPayment           BookingStatus = "pending_payment"
	StatusPendingVehicleAssignment BookingStatus = "pending_vehicle_assignment"
	StatusPartnerAccepted          BookingStatus = "partner_accepted"
	StatusActive                   BookingStatus = "active"
	StatusCompleted                BookingStatus = "completed"
	StatusCancelled                BookingStatus = "cancelled"
	StatusRejected                 BookingStatus = "rejected"
)

// Actor identifies who is driving a state change.
type Actor string

const (
	ActorDriver  Actor = "driver"
	ActorPartner Actor = "partner"
	ActorAdmin   Actor = "admin"
	ActorSystem  Actor = "system"
)

// Booking is a rental agreement between a driver and a partner for a
// vehicle. Status always starts at pending_partner_approval and only
// moves along the transition table. The driver/partner/vehicle display
// columns are denormalized snapshots taken at creation so list views
// never join against the party tables.
type Booking struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	DriverID  snowflake.ID `gorm:"not null;index"`
	PartnerID snowflake.ID `gorm:"not null;index"`
	VehicleID snowflake.ID `gorm:"not null;index"`

	TermWeeks        int           `gorm:"not null"`
	TotalAmountCents int64         `gorm:"not null"`
	StartDate        time.Time     `gorm:"not null"`
	EndDate          time.Time     `gorm:"not null"`
	Status           BookingStatus `gorm:"type:text;not null;index"`

	DocumentsComplete bool       `gorm:"not null;default:false"`
	ApprovalDeadline  *time.Time `gorm:""`

	DriverName          string `gorm:"type:text"`
	PartnerName         string `gorm:"type:text"`
	VehicleMake         string `gorm:"type:text"`
	VehicleModel        string `gorm:"type:text"`
	VehicleRegistration string `gorm:"type:text"`
	VehicleCategory     string `gorm:"type:text;index"`

	Metadata datatypes.JSONMap `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Booking) TableName() string { return "bookings" }

type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "pending"
	ReturnStatusApproved ReturnStatus = "approved"
	ReturnStatusRejected ReturnStatus = "rejected"
)

// ReturnRequest is a driver-initiated request to end a booking early.
// At most one live (pending or approved) request exists per booking.
type ReturnRequest struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	BookingID snowflake.ID `gorm:"not null;index"`

	Status      ReturnStatus `gorm:"type:text;not null"`
	Reason      string       `gorm:"type:text;not null"`
	RequestedBy snowflake.ID `gorm:"not null"`

	RequestedAt time.Time  `gorm:"not null"`
	ResolvedAt  *time.Time `gorm:""`
	ResolvedBy  *Actor     `gorm:"type:text"`
}

// TableName sets the database table name.
func (ReturnRequest) TableName() string { return "return_requests" }

// Live reports whether the request still blocks a new one.
func (r ReturnRequest) Live() bool {
	return r.Status == ReturnStatusPending || r.Status == ReturnStatusApproved
}

type IssueSeverity string

const (
	SeverityLow      IssueSeverity = "low"
	SeverityMedium   IssueSeverity = "medium"
	SeverityHigh     IssueSeverity = "high"
	SeverityCritical IssueSeverity = "critical"
)

var severityRank = map[IssueSeverity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// SeverityRank orders severities with critical highest. Unknown values
// rank below low.
func SeverityRank(s IssueSeverity) int {
	rank, ok := severityRank[s]
	if !ok {
		return -1
	}
	return rank
}

type IssueStatus string

const (
	IssueStatusOpen     IssueStatus = "open"
	IssueStatusResolved IssueStatus = "resolved"
)

// Issue is a reported problem tied to a booking. Rows are append-only:
// after creation only the resolution fields change.
type Issue struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	BookingID snowflake.ID `gorm:"not null;index"`

	Severity    IssueSeverity `gorm:"type:text;not null"`
	Status      IssueStatus   `gorm:"type:text;not null"`
	Description string        `gorm:"type:text;not null"`
	ReportedBy  Actor         `gorm:"type:text;not null"`

	ResolvedAt      *time.Time `gorm:""`
	ResolvedBy      *Actor     `gorm:"type:text"`
	ResolutionNotes *string    `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Issue) TableName() string { return "issues" }
