package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	bookingdomain "github.com/comparepco/rentalcore/internal/booking/domain"
	"github.com/comparepco/rentalcore/internal/lockguard"
	paymentdomain "github.com/comparepco/rentalcore/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation", invalidRequestError(), http.StatusBadRequest, "validation_error"},
		{"invalid booking id", bookingdomain.ErrInvalidBookingID, http.StatusBadRequest, "validation_error"},
		{"invalid data", gorm.ErrInvalidData, http.StatusBadRequest, "validation_error"},
		{"booking missing", bookingdomain.ErrBookingNotFound, http.StatusNotFound, "not_found"},
		{"schedule missing", paymentdomain.ErrScheduleNotFound, http.StatusNotFound, "not_found"},
		{"duplicate return", bookingdomain.ErrDuplicateRequest, http.StatusConflict, "conflict"},
		{"already resolved", bookingdomain.ErrAlreadyResolved, http.StatusConflict, "conflict"},
		{"lock held", lockguard.ErrLockHeld, http.StatusConflict, "conflict"},
		{"invalid state", bookingdomain.ErrInvalidState, http.StatusUnprocessableEntity, "invalid_state"},
		{"activation incomplete", bookingdomain.ErrActivationIncomplete, http.StatusUnprocessableEntity, "invalid_state"},
		{"wrapped not found", fmt.Errorf("load booking: %w", bookingdomain.ErrBookingNotFound), http.StatusNotFound, "not_found"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantType, payload.Type)
		})
	}
}

func TestMapErrorCarriesTransitionDetails(t *testing.T) {
	err := bookingdomain.NewTransitionError(bookingdomain.StatusActive, bookingdomain.StatusPendingPayment)

	status, payload := mapError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "invalid_transition", payload.Type)
	assert.Equal(t, string(bookingdomain.StatusActive), payload.From)
	assert.Equal(t, string(bookingdomain.StatusPendingPayment), payload.To)
}

func TestMapErrorMalformedEvent(t *testing.T) {
	err := &paymentdomain.MalformedEventError{
		EventID:     1,
		Kind:        paymentdomain.KindRefund,
		AmountCents: 250,
	}

	status, payload := mapError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "malformed_event", payload.Type)
}

func TestClassifyErrorForLog(t *testing.T) {
	class, kind := classifyErrorForLog(bookingdomain.ErrBookingNotFound)
	assert.Equal(t, "client", class)
	assert.Equal(t, "not_found", kind)

	class, kind = classifyErrorForLog(errors.New("boom"))
	assert.Equal(t, "internal", class)
	assert.Equal(t, "internal_error", kind)
}
