// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints,
// including structured error envelopes, consistent JSON serialization, and
// helpers for common HTTP patterns. The goal is to guarantee uniform responses
// for both success and failure cases, making the API predictable and
// machine-friendly.
//
// Conventions:
//   - All error responses must return an ErrorResponse with a stable `code`
//     and `success` set to false.
//   - `fail()` centralizes error logging and formatting, ensuring 5xx responses
//     are logged with request context for observability.
//   - `ok()` simplifies writing success responses in a consistent shape.
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "success": false,
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "validation_failed",
//	  "message": "request validation failed",
//	  "field_errors": { "user_type": "user_type must be candidate or recruiter" }
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/insightcoach/go-insights-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - Success: always false; lets clients branch on one field for all bodies.
//   - RequestID: optional correlation ID, echoed from X-Request-ID header,
//     used to correlate server logs with client-side errors.
//   - Code: a stable, machine-readable string (see errors.go constants).
//   - Message: a human-readable error description, safe for display to users.
//   - FieldErrors: per-field violations, present only for validation failures.
//
// This struct is used in OpenAPI documentation via Swagger annotations.
type ErrorResponse struct {
	// Always false on error bodies
	Success bool `json:"success" example:"false"`
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"insight not found"`
	// Per-field validation messages
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// fail aborts the request with a structured error and logs server-side errors.
//
// It constructs an ErrorResponse, writes it as JSON with the given HTTP status,
// and calls gin.Context.AbortWithStatusJSON to stop further processing.
//
// Server errors (>=500) are logged using the request-scoped logger from middleware.
func fail(c *gin.Context, status int, code, msg string) {
	failFields(c, status, code, msg, nil)
}

// failFields is fail with per-field validation messages attached.
func failFields(c *gin.Context, status int, code, msg string, fields map[string]string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		Success:     false,
		RequestID:   reqID,
		Code:        code,
		Message:     msg,
		FieldErrors: fields,
	}

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
//
// It serializes `body` as JSON with the given HTTP status code.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
