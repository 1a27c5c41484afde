// Package services defines the business logic for accounts, upload grants,
// and the insight pipeline. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Insight-related errors.
var (
	// ErrChatNotFound indicates that the requested insight does not exist.
	ErrChatNotFound = errors.New("insight not found")

	// ErrForbidden indicates that the insight exists but belongs to a
	// different user.
	ErrForbidden = errors.New("insight belongs to another user")

	// ErrTranscriptionFailed is returned when the speech-to-text stage fails
	// for any reason other than a deadline.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrFeedbackFailed is returned when the feedback generation stage fails
	// for any reason other than a deadline.
	ErrFeedbackFailed = errors.New("feedback generation failed")

	// ErrDeadlineExceeded is returned when a pipeline stage ran past its
	// configured time budget.
	ErrDeadlineExceeded = errors.New("pipeline stage deadline exceeded")
)

// Upload-related errors.
var (
	// ErrInvalidMediaType is returned when a grant is requested for a MIME
	// type outside the audio and video allowlists.
	ErrInvalidMediaType = errors.New("unsupported media type")
)

// Account-related errors.
var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong
	// password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when registering with an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrAccountInactive is returned when a deactivated account attempts to
	// log in with otherwise valid credentials.
	ErrAccountInactive = errors.New("account is inactive")
)

// ValidationError carries per-field messages for a request that failed input
// validation. Handlers render Fields verbatim in the error envelope.
type ValidationError struct {
	Fields map[string]string
}

// Error lists the offending fields in stable order.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("validation failed: %s", strings.Join(keys, ", "))
}

// newValidationError builds a ValidationError unless fields is empty.
func newValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
