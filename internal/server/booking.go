package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	bookingdomain "github.com/comparepco/rentalcore/internal/booking/domain"
)

type createBookingRequest struct {
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

func (s *Server) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bookingSvc.Create(c.Request.Context(), bookingdomain.CreateBookingRequest{
		DriverID:  strings.TrimSpace(req.DriverID),
		PartnerID: strings.TrimSpace(req.PartnerID),
		VehicleID: strings.TrimSpace(req.VehicleID),

		TermWeeks:        req.TermWeeks,
		TotalAmountCents: req.TotalAmountCents,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,

		ApprovalDeadline: req.ApprovalDeadline,

		DriverName:          req.DriverName,
		PartnerName:         req.PartnerName,
		VehicleMake:         req.VehicleMake,
		VehicleModel:        req.VehicleModel,
		VehicleRegistration: req.VehicleRegistration,
		VehicleCategory:     req.VehicleCategory,

		Metadata: req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBooking(c *gin.Context) {
	resp, err := s.bookingSvc.GetByID(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBookings(c *gin.Context) {
	var query struct {
		Status    string `form:"status"`
		DriverID  string `form:"driver_id"`
		PartnerID string `form:"partner_id"`
		PageSize  string `form:"page_size"`
		PageToken string `form:"page_token"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bookingSvc.List(c.Request.Context(), bookingdomain.ListBookingRequest{
		Status:    query.Status,
		DriverID:  query.DriverID,
		PartnerID: query.PartnerID,
		PageSize:  parsePageSize(query.PageSize),
		PageToken: query.PageToken,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      resp.Bookings,
		"page_info": resp.PageInfo,
	})
}

type transitionRequest struct {
	Target string `json:"target"`
	Actor  string `json:"actor"`
}

func (s *Server) TransitionBooking(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bookingSvc.Transition(c.Request.Context(), bookingdomain.TransitionRequest{
		BookingID: c.Param("bookingId"),
		Target:    bookingdomain.BookingStatus(strings.TrimSpace(req.Target)),
		Actor:     bookingdomain.Actor(strings.TrimSpace(req.Actor)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type requestReturnRequest struct {
	Reason string `json:"reason"`
	Actor  string `json:"actor"`
}

func (s *Server) RequestReturn(c *gin.Context) {
	var req requestReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bookingSvc.RequestReturn(c.Request.Context(), bookingdomain.RequestReturnRequest{
		BookingID: c.Param("bookingId"),
		Reason:    req.Reason,
		Actor:     bookingdomain.Actor(strings.TrimSpace(req.Actor)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type resolveReturnRequest struct {
	Decision string `json:"decision"`
	Actor    string `json:"actor"`
}

func (s *Server) ResolveReturn(c *gin.Context) {
	var req resolveReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bookingSvc.ResolveReturn(c.Request.Context(), bookingdomain.ResolveReturnRequest{
		BookingID: c.Param("bookingId"),
		Decision:  bookingdomain.ReturnDecision(strings.TrimSpace(req.Decision)),
		Actor:     bookingdomain.Actor(strings.TrimSpace(req.Actor)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type reportIssueRequest struct {
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Reporter    string `json:"reporter"`
}

func (s *Server) ReportIssue(c *gin.Context) {
	var req reportIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bookingSvc.ReportIssue(c.Request.Context(), bookingdomain.ReportIssueRequest{
		BookingID:   c.Param("bookingId"),
		Severity:    bookingdomain.IssueSeverity(strings.TrimSpace(req.Severity)),
		Description: req.Description,
		Reporter:    bookingdomain.Actor(strings.TrimSpace(req.Reporter)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListIssues(c *gin.Context) {
	resp, err := s.bookingSvc.ListIssues(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type resolveIssueRequest struct {
	Resolver string  `json:"resolver"`
	Notes    *string `json:"notes,omitempty"`
}

func (s *Server) ResolveIssue(c *gin.Context) {
	var req resolveIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bookingSvc.ResolveIssue(c.Request.Context(), bookingdomain.ResolveIssueRequest{
		IssueID:  c.Param("issueId"),
		Resolver: bookingdomain.Actor(strings.TrimSpace(req.Resolver)),
		Notes:    req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
