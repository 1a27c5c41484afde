// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via the `fail()` helper in this package). These codes provide
// clients with a stable, machine-readable error taxonomy that supplements
// human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., unauthorized, conflict) mirror common HTTP status
//     semantics to aid interoperability.
//   - Domain-specific codes (e.g., transcription_failed) are reserved for
//     pipeline errors that cannot be conveyed by status alone.
//   - All error responses must include both an HTTP status and one of these codes.
package handlers

const (
	ErrCodeValidation   = "validation_failed"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Pipeline-specific:
	ErrCodeTranscription = "transcription_failed"
	ErrCodeFeedback      = "feedback_generation_failed"
	ErrCodeDeadline      = "deadline_exceeded"
)
