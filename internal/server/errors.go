package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	bookingdomain "github.com/comparepco/rentalcore/internal/booking/domain"
	"github.com/comparepco/rentalcore/internal/lockguard"
	paymentdomain "github.com/comparepco/rentalcore/internal/payment/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	From    string            `json:"from,omitempty"`
	To      string            `json:"to,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	var vErrs *ValidationErrors
	if errors.As(err, &vErrs) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErrs.Errors,
		}
	}

	var tErr *bookingdomain.TransitionError
	if errors.As(err, &tErr) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "invalid_transition",
			Message: tErr.Error(),
			From:    string(tErr.From),
			To:      string(tErr.To),
		}
	}

	var mErr *paymentdomain.MalformedEventError
	if errors.As(err, &mErr) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "malformed_event",
			Message: mErr.Error(),
		}
	}

	switch {
	case errors.Is(err, bookingdomain.ErrInvalidBookingID),
		errors.Is(err, bookingdomain.ErrInvalidStatus),
		errors.Is(err, bookingdomain.ErrInvalidActor),
		errors.Is(err, bookingdomain.ErrInvalidSeverity),
		errors.Is(err, bookingdomain.ErrInvalidDecision),
		errors.Is(err, bookingdomain.ErrEmptyReason),
		errors.Is(err, bookingdomain.ErrEmptyDescription),
		errors.Is(err, paymentdomain.ErrInvalidKind),
		errors.Is(err, paymentdomain.ErrInvalidEventStatus),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrInvalidCycleEnd),
		errors.Is(err, gorm.ErrInvalidData):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, bookingdomain.ErrBookingNotFound),
		errors.Is(err, bookingdomain.ErrReturnNotFound),
		errors.Is(err, bookingdomain.ErrIssueNotFound),
		errors.Is(err, paymentdomain.ErrScheduleNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	case errors.Is(err, bookingdomain.ErrDuplicateRequest),
		errors.Is(err, bookingdomain.ErrAlreadyResolved),
		errors.Is(err, lockguard.ErrLockHeld):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, bookingdomain.ErrInvalidState),
		errors.Is(err, bookingdomain.ErrCompletionNotDue),
		errors.Is(err, bookingdomain.ErrActivationIncomplete),
		errors.Is(err, bookingdomain.ErrInvalidTransition),
		errors.Is(err, paymentdomain.ErrMalformedEvent):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "invalid_state",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog labels request errors for the access log.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return "internal", payload.Type
	}
	return "client", payload.Type
}
