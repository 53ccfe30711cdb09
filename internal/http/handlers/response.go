// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints:
// the error envelope, the single error classification function, and helpers
// for success responses.
//
// Conventions:
//   - All error responses are an ErrorResponse.
//   - classify() is the only place that decides which status a service error
//     maps to; handlers never pick a status for a service error themselves.
//   - fail() centralizes error logging and formatting, ensuring 5xx responses
//     are logged with request context and never leak internal messages.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-feedback-service/internal/http/middleware"
	"github.com/tbourn/go-feedback-service/internal/services"
)

// internalMessage replaces the detail of every 5xx response.
const internalMessage = "internal server error"

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// When the error was produced (UTC)
	Timestamp time.Time `json:"timestamp" example:"2026-01-02T15:04:05Z"`
	// HTTP status code
	Status int `json:"status" example:"404"`
	// Short category, see errors.go
	Error string `json:"error" example:"Not Found"`
	// Human-readable detail
	Message string `json:"message" example:"not found: feedback 42"`
	// Request path that failed
	Path string `json:"path" example:"/api/feedback/42"`
	// Correlates server logs and client errors
	RequestID string `json:"requestId,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// classify maps an error onto its HTTP status and category. Errors wrapping
// services.ErrNotFound are 404, services.ErrBadRequest are 400, and anything
// else is 500.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, CategoryNotFound
	case errors.Is(err, services.ErrBadRequest):
		return http.StatusBadRequest, CategoryBadRequest
	default:
		return http.StatusInternalServerError, CategoryInternal
	}
}

// failErr classifies err and writes the matching envelope.
func failErr(c *gin.Context, err error) {
	status, category := classify(err)
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().Err(err).Int("status", status).Msg("api error")
		writeError(c, status, category, internalMessage)
		return
	}
	writeError(c, status, category, err.Error())
}

// fail aborts the request with a structured error for a condition detected
// in the transport layer itself (bad path parameter, malformed body).
func fail(c *gin.Context, status int, msg string) {
	category := http.StatusText(status)
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().Int("status", status).Str("message", msg).Msg("api error")
		msg = internalMessage
	}
	writeError(c, status, category, msg)
}

// Fail is the exported variant of fail(), used by the router for NoRoute and
// NoMethod fallbacks.
func Fail(c *gin.Context, status int, msg string) { fail(c, status, msg) }

func writeError(c *gin.Context, status int, category, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     category,
		Message:   msg,
		Path:      c.Request.URL.Path,
		RequestID: c.Writer.Header().Get("X-Request-ID"),
	})
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
