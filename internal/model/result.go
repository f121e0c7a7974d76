package model

import "errors"

var (
	// ErrTransport marks a network or HTTP-level failure for one provider.
	ErrTransport = errors.New("transport failure")
	// ErrMalformedPayload marks a response body that could not be decoded at all.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrUnknownProvider marks a configured provider name with no registered source.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Outcome classifies a ProviderResult.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeEmpty  Outcome = "empty"
	OutcomeFailed Outcome = "failed"
)

// ProviderResult is the outcome of fetching one provider: a series, an empty
// series, or a failure reason.
type ProviderResult struct {
	Provider string
	Series   Series
	Err      error
}

// Outcome reports which of the three result shapes r holds.
func (r ProviderResult) Outcome() Outcome {
	switch {
	case r.Err != nil:
		return OutcomeFailed
	case r.Series.Empty():
		return OutcomeEmpty
	default:
		return OutcomeOK
	}
}

// Reason is a short human-readable description of a non-OK outcome.
func (r ProviderResult) Reason() string {
	switch r.Outcome() {
	case OutcomeFailed:
		return r.Err.Error()
	case OutcomeEmpty:
		return "no usable data"
	default:
		return ""
	}
}
