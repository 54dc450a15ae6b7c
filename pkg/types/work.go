// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the oa-harvest pipeline:
// work records returned by the metadata index, per-item outcomes, and the
// per-topic and per-job aggregates reported to callers.
package types

import "fmt"

// UnknownDate is the publication date recorded when no date-parts field
// carries a usable value.
const UnknownDate = "unknown"

// WorkRecord is one candidate journal article returned by the metadata
// search. It is read-only for the duration of processing.
type WorkRecord struct {
	// DOI is the persistent identifier. Empty when the index omitted it.
	DOI string `json:"doi" yaml:"doi"`

	// Title is the first entry of the index's title array.
	Title string `json:"title" yaml:"title"`

	// Journal is the first entry of the index's container-title array.
	Journal string `json:"journal" yaml:"journal"`

	// Published is the best-effort publication date ("2024-3-15", "2024",
	// or UnknownDate).
	Published string `json:"published" yaml:"published"`

	// Publisher is the publisher name as reported by the index.
	Publisher string `json:"publisher" yaml:"publisher"`
}

// FailureReason classifies why an item did not yield a validated PDF.
type FailureReason string

const (
	ReasonPublisherExcluded FailureReason = "publisher excluded"
	ReasonMissingIdentifier FailureReason = "missing identifier"
	ReasonNoOALocation      FailureReason = "no OA location"
	ReasonTransport         FailureReason = "transport error"
	ReasonHTTPStatus        FailureReason = "http error"
	ReasonTooSmall          FailureReason = "too small"
	ReasonNotPDF            FailureReason = "not a PDF"
	ReasonWrite             FailureReason = "write error"
	ReasonTimeout           FailureReason = "timeout"
	ReasonInternal          FailureReason = "internal error"
)

// Outcome is the tagged result of processing one WorkRecord: either a
// success carrying the validated file path, or a failure carrying a reason.
// Use Succeeded and Failed to construct values; a zero Outcome is invalid.
type Outcome struct {
	path    string
	reason  FailureReason
	message string
}

// Succeeded returns a success outcome for the validated file at path.
func Succeeded(path string) Outcome {
	return Outcome{path: path, message: "Saved: " + path}
}

// Failed returns a failure outcome with a diagnostic message.
func Failed(reason FailureReason, format string, args ...any) Outcome {
	return Outcome{reason: reason, message: fmt.Sprintf(format, args...)}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool { return o.reason == "" && o.path != "" }

// Path returns the validated file path for a success, or "".
func (o Outcome) Path() string { return o.path }

// Reason returns the failure reason, or "" for a success.
func (o Outcome) Reason() FailureReason { return o.reason }

// Message returns the human-readable diagnostic for the outcome.
func (o Outcome) Message() string { return o.message }

func (o Outcome) String() string {
	if o.OK() {
		return o.message
	}
	return fmt.Sprintf("%s: %s", o.reason, o.message)
}
