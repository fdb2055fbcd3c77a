package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidDeviceInfo = errors.New("invalid_device_info")
	ErrInvalidCode       = errors.New("invalid_code")
	ErrSessionNotFound   = errors.New("session_not_found")
	ErrSessionExpired    = errors.New("session_expired")
	ErrAlreadyClaimed    = errors.New("already_claimed")
	ErrInvalidState      = errors.New("invalid_state")
)

// RateLimitError tells a polling device how long to wait before retrying.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate_limited: retry after %s", e.RetryAfter)
}
