package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/masahif/seoplanner/internal/export"
	"github.com/masahif/seoplanner/internal/planner"
)

// Error codes carried in the error envelope
const (
	CodeValidation = "validation_error"
	CodeNotFound   = "not_found"
	CodeConflict   = "conflict"
	CodeAdapter    = "adapter_error"
	CodeTimeout    = "timeout"
	CodeInternal   = "internal_error"
)

// APIError is the body of a failed request
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps APIError as {"error": {...}}
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// statusFor maps a service error onto an HTTP status and error code
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, planner.ErrValidation), errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, planner.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, planner.ErrConflict):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, planner.ErrAdapter):
		return http.StatusBadGateway, CodeAdapter
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorEnvelope{Error: APIError{Message: err.Error(), Code: CodeValidation}})
}

// parentExists looks up the :id parent of a child listing and writes the
// error response when it is missing
func parentExists[T any](c *gin.Context, get func(context.Context, string) (T, error)) bool {
	if _, err := get(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return false
	}
	return true
}
