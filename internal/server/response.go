package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	casedomain "github.com/smallbiznis/collecta/internal/debtcase/domain"
	escalationdomain "github.com/smallbiznis/collecta/internal/escalation/domain"
	plandomain "github.com/smallbiznis/collecta/internal/paymentplan/domain"
	voicedomain "github.com/smallbiznis/collecta/internal/voice/domain"
)

type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *apiError) Error() string { return e.Message }

var (
	ErrNotFound        = &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "resource not found"}
	ErrTooManyRequests = &apiError{Status: http.StatusTooManyRequests, Code: "too_many_requests", Message: "rate limit exceeded"}
)

func invalidRequestError() *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "request body is invalid"}
}

func newValidationError(field, code, message string) *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: code, Message: message, Field: field}
}

// AbortWithError maps domain errors onto HTTP responses. Unrecognized errors
// become opaque 500s so internals never leak.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	status := http.StatusInternalServerError
	code := "internal_error"
	message := "internal server error"

	switch {
	case isNotFoundError(err):
		status = http.StatusNotFound
		code = err.Error()
		message = err.Error()
	case isValidationError(err):
		status = http.StatusBadRequest
		code = err.Error()
		message = err.Error()
	case isConflictError(err):
		status = http.StatusConflict
		code = err.Error()
		message = err.Error()
	}

	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, casedomain.ErrCaseNotFound),
		errors.Is(err, casedomain.ErrAgentNotFound),
		errors.Is(err, casedomain.ErrCustomerNotFound),
		errors.Is(err, escalationdomain.ErrRuleNotFound),
		errors.Is(err, plandomain.ErrPlanNotFound),
		errors.Is(err, plandomain.ErrInstallmentNotFound),
		errors.Is(err, voicedomain.ErrProviderNotFound):
		return true
	}
	return false
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, casedomain.ErrInvalidStatus),
		errors.Is(err, casedomain.ErrInvalidPriority),
		errors.Is(err, escalationdomain.ErrInvalidAction),
		errors.Is(err, plandomain.ErrInvalidSchedule),
		errors.Is(err, plandomain.ErrInvalidAmount),
		errors.Is(err, voicedomain.ErrInvalidOutcome):
		return true
	}
	return false
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, casedomain.ErrTerminalCase),
		errors.Is(err, casedomain.ErrCaseAlreadyExists),
		errors.Is(err, casedomain.ErrNoPhoneOnFile),
		errors.Is(err, plandomain.ErrPlanNotActive):
		return true
	}
	return false
}
