package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-admin/internal/core"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		// Log after request
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}

// statusFor maps a core error code onto an HTTP status.
func statusFor(code string) int {
	switch code {
	case core.ErrCodeBadRequest, core.ErrCodeEmptyText, core.ErrCodeInvalidRole, core.ErrCodeInvalidTarget:
		return http.StatusBadRequest
	case core.ErrCodeRemote:
		return http.StatusBadGateway
	case core.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err as an ErrorResponse with a status derived from its class.
func abortWithError(c *gin.Context, err error) {
	var cerr *core.CoreError
	if !errors.As(err, &cerr) {
		cerr = core.ToCoreError(err)
	}
	c.AbortWithStatusJSON(statusFor(cerr.Code), ErrorResponse{Error: cerr.Message, Code: cerr.Code})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: core.ErrCodeBadRequest})
}
