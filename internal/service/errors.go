package service

import (
	"errors"
	"strings"

	"github.com/news-aggregator-api/internal/validation"
)

// Sentinel errors returned by services. Handlers map them to status codes.
var (
	ErrInvalidEmail        = errors.New("valid email required")
	ErrOTPNotRequested     = errors.New("OTP expired or not requested")
	ErrOTPExpired          = errors.New("OTP expired")
	ErrOTPMismatch         = errors.New("invalid OTP")
	ErrDispatchFailed      = errors.New("failed to send email")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("not allowed")
	ErrConflict            = errors.New("already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("email already exists")
	ErrRateLimited         = errors.New("too many attempts, try again later")
	ErrUpstreamUnavailable = errors.New("upstream provider unavailable")
	ErrUnauthorized        = errors.New("authentication required")
)

// ValidationErrors wraps field-level validation failures
type ValidationErrors struct {
	Errors []validation.ValidationError
}

func (e *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// invalid returns a *ValidationErrors when errs is non-empty
func invalid(errs []validation.ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationErrors{Errors: errs}
}
