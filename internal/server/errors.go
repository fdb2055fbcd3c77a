package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	devicedomain "github.com/vanillasomethin/ALIVE-Backend/internal/device/domain"
	pairingdomain "github.com/vanillasomethin/ALIVE-Backend/internal/pairing/domain"
)

// apiError maps a condition to an HTTP status and a stable machine code.
type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string { return e.code }

var (
	ErrUnauthorized = &apiError{status: http.StatusUnauthorized, code: "unauthorized", message: "unauthorized"}
	ErrNotFound     = &apiError{status: http.StatusNotFound, code: "not_found", message: "not found"}
)

func invalidRequestError() *apiError {
	return &apiError{status: http.StatusBadRequest, code: "invalid_request", message: "invalid request body"}
}

func newValidationError(field, code, message string) *apiError {
	return &apiError{
		status:  http.StatusBadRequest,
		code:    code,
		message: fmt.Sprintf("%s: %s", field, message),
	}
}

// AbortWithError recovers domain errors into typed JSON responses. Unknown
// errors are reported as a generic storage failure after rollback.
func AbortWithError(c *gin.Context, err error) {
	var rateLimited *pairingdomain.RateLimitError
	if errors.As(err, &rateLimited) {
		seconds := int(rateLimited.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", fmt.Sprintf("%d", seconds))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":               "rate_limited",
			"retry_after_seconds": seconds,
		})
		return
	}

	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.status, gin.H{"error": apiErr.code, "message": apiErr.message})
		return
	}

	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, pairingdomain.ErrInvalidDeviceInfo),
		errors.Is(err, pairingdomain.ErrInvalidCode):
		status, code = http.StatusBadRequest, err.Error()
	case errors.Is(err, pairingdomain.ErrSessionNotFound):
		status, code = http.StatusNotFound, err.Error()
	case errors.Is(err, pairingdomain.ErrSessionExpired):
		status, code = http.StatusGone, err.Error()
	case errors.Is(err, pairingdomain.ErrAlreadyClaimed),
		errors.Is(err, pairingdomain.ErrInvalidState):
		status, code = http.StatusConflict, err.Error()
	case errors.Is(err, devicedomain.ErrUnauthorized):
		status, code = http.StatusUnauthorized, err.Error()
	case errors.Is(err, devicedomain.ErrInvalidID):
		status, code = http.StatusNotFound, err.Error()
	}

	c.AbortWithStatusJSON(status, gin.H{"error": code})
}
