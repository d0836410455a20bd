package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/news-aggregator-api/internal/service"
	"github.com/rs/zerolog"
)

// errorBody builds the JSON body of a failed request
func errorBody(msg string) gin.H {
	return gin.H{"success": false, "error": msg}
}

// statusFor maps a service error to an HTTP status
func statusFor(err error) int {
	var verr *service.ValidationErrors
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrOTPNotRequested),
		errors.Is(err, service.ErrOTPExpired),
		errors.Is(err, service.ErrOTPMismatch),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrEmailTaken):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. subject names the resource in not-found
// messages. Unexpected errors are logged and reported without detail.
func respondError(c *gin.Context, log zerolog.Logger, err error, subject string) {
	status := statusFor(err)

	var verr *service.ValidationErrors
	switch {
	case errors.As(err, &verr):
		body := errorBody("validation failed")
		body["details"] = verr.Errors
		c.JSON(status, body)
	case status == http.StatusNotFound && subject != "":
		c.JSON(status, errorBody(subject+" not found"))
	case status == http.StatusInternalServerError && !errors.Is(err, service.ErrDispatchFailed):
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(status, errorBody("Internal server error"))
	default:
		c.JSON(status, errorBody(err.Error()))
	}
}
