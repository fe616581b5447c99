package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/comparepco/rentalcore/internal/payment/domain"
)

type recordPaymentEventRequest struct {
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	AmountCents int64     `json:"amount_cents"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (s *Server) RecordPaymentEvent(c *gin.Context) {
	var req recordPaymentEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.RecordEvent(c.Request.Context(), paymentdomain.RecordEventRequest{
		BookingID:   c.Param("bookingId"),
		Kind:        paymentdomain.EventKind(strings.TrimSpace(req.Kind)),
		Status:      paymentdomain.EventStatus(strings.TrimSpace(req.Status)),
		AmountCents: req.AmountCents,
		OccurredAt:  req.OccurredAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPaymentEvents(c *gin.Context) {
	resp, err := s.paymentSvc.ListEvents(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ReconcileBooking(c *gin.Context) {
	resp, err := s.paymentSvc.ReconcileByBooking(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type activateScheduleRequest struct {
	AmountPerCycleCents int64     `json:"amount_per_cycle_cents"`
	CycleEnd            time.Time `json:"cycle_end"`
}

func (s *Server) ActivateSchedule(c *gin.Context) {
	var req activateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.ActivateSchedule(c.Request.Context(), paymentdomain.ActivateScheduleRequest{
		BookingID:           c.Param("bookingId"),
		AmountPerCycleCents: req.AmountPerCycleCents,
		CycleEnd:            req.CycleEnd,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivateSchedule(c *gin.Context) {
	if err := s.paymentSvc.DeactivateSchedule(c.Request.Context(), c.Param("bookingId")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": "deactivated"}})
}
