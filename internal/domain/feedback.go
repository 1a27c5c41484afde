// Package domain – Feedback value object.
//
// Feedback is the structured verdict produced by the language-model stage of
// the insight pipeline. It is never stored as its own row; a completed Chat
// carries one immutable JSON encoding of it in its Result column.
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Feedback is the structured interview verdict. The shape is a hard contract:
// model output that does not decode into exactly these fields is rejected,
// never stored partially.
type Feedback struct {
	// OverallRating is a 0–10 score; fractional values are allowed.
	OverallRating float64 `json:"overallRating"`
	// Strengths lists what the speaker did well, in model order.
	Strengths []string `json:"strengths"`
	// Improvements lists concrete weaknesses, in model order.
	Improvements []string `json:"improvements"`
	// DetailedFeedback is the free-text narrative assessment.
	DetailedFeedback string `json:"detailedFeedback"`
	// Recommendations lists actionable next steps, in model order.
	Recommendations []string `json:"recommendations"`
}

// ErrMalformedFeedback is returned when a payload is not valid JSON or does
// not match the Feedback shape.
var ErrMalformedFeedback = errors.New("malformed feedback payload")

// ParseFeedback strictly decodes data into a Feedback value and validates its
// shape. Unknown fields, missing lists, and an empty narrative all fail.
//
// The rating is clamped into [0,10] after decoding: a well-formed verdict with
// a numerically out-of-range score is salvaged rather than discarded, since
// every other field is still usable.
func ParseFeedback(data []byte) (*Feedback, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var f Feedback
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeedback, err)
	}
	// Reject trailing garbage after the JSON document.
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON document", ErrMalformedFeedback)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeedback, err)
	}

	f.clampRating()
	return &f, nil
}

// Encode returns the canonical JSON encoding stored in Chat.Result.
func (f *Feedback) Encode() (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// validate checks that all contract fields are present. List fields must be
// non-nil (an explicit empty list is acceptable) and the narrative non-empty.
func (f *Feedback) validate() error {
	if f.Strengths == nil {
		return errors.New("strengths is required")
	}
	if f.Improvements == nil {
		return errors.New("improvements is required")
	}
	if f.Recommendations == nil {
		return errors.New("recommendations is required")
	}
	if f.DetailedFeedback == "" {
		return errors.New("detailedFeedback is required")
	}
	return nil
}

// clampRating bounds OverallRating into [0,10].
func (f *Feedback) clampRating() {
	if f.OverallRating < 0 {
		f.OverallRating = 0
	}
	if f.OverallRating > 10 {
		f.OverallRating = 10
	}
}
