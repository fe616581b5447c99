package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/comparepco/rentalcore/internal/bookingquery"
)

func (s *Server) QueryBookings(c *gin.Context) {
	var query struct {
		Search          string `form:"search"`
		Status          string `form:"status"`
		PaymentStatus   string `form:"payment_status"`
		DateStart       string `form:"date_start"`
		DateEnd         string `form:"date_end"`
		VehicleCategory string `form:"vehicle_category"`
		UrgencyOnly     string `form:"urgency_only"`
		SortBy          string `form:"sort_by"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dateStart, err := parseOptionalTime(query.DateStart, false)
	if err != nil {
		AbortWithError(c, newValidationError("date_start", "invalid_date", "invalid date_start"))
		return
	}
	dateEnd, err := parseOptionalTime(query.DateEnd, true)
	if err != nil {
		AbortWithError(c, newValidationError("date_end", "invalid_date", "invalid date_end"))
		return
	}
	urgencyOnly, err := parseOptionalBool(query.UrgencyOnly)
	if err != nil {
		AbortWithError(c, newValidationError("urgency_only", "invalid_bool", "invalid urgency_only"))
		return
	}

	filter := bookingquery.Filter{
		Search:          strings.TrimSpace(query.Search),
		Status:          strings.TrimSpace(query.Status),
		PaymentStatus:   strings.TrimSpace(query.PaymentStatus),
		DateStart:       dateStart,
		DateEnd:         dateEnd,
		VehicleCategory: strings.TrimSpace(query.VehicleCategory),
		SortBy:          strings.TrimSpace(query.SortBy),
	}
	if urgencyOnly != nil {
		filter.UrgencyOnly = *urgencyOnly
	}

	resp, err := s.querySvc.QueryBookings(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetEnrichedBooking(c *gin.Context) {
	booking, err := s.bookingSvc.GetByID(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.querySvc.GetEnriched(c.Request.Context(), booking.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListNotificationIntents(c *gin.Context) {
	booking, err := s.bookingSvc.GetByID(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.notificationSvc.ListByBooking(c.Request.Context(), booking.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
