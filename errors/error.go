package errors

import (
	"fmt"
	"time"
)

// ConfigError occurs when a required option is missing or an option is invalid
type ConfigError struct {
	Option string
	Reason string
}

// Error returns a textual representation of this ConfigError
func (e ConfigError) Error() string {
	return fmt.Sprintf("Invalid option %s: %s", e.Option, e.Reason)
}

// ConnectionError occurs when a connection to the endpoint cannot be established,
// or is broken before a response is received
type ConnectionError struct {
	URL   string
	Cause error
}

// Error returns a textual representation of this ConnectionError
func (e ConnectionError) Error() string {
	return fmt.Sprintf("Connection to %s failed: %v", e.URL, e.Cause)
}

// Unwrap returns the underlying transport error
func (e ConnectionError) Unwrap() error {
	return e.Cause
}

// TimeoutError occurs when a call exceeds its connection or read timeout
type TimeoutError struct {
	URL     string
	Timeout time.Duration
	Cause   error
}

// Error returns a textual representation of this TimeoutError
func (e TimeoutError) Error() string {
	return fmt.Sprintf("Call to %s timed out after %s: %v", e.URL, e.Timeout, e.Cause)
}

// Unwrap returns the underlying transport error
func (e TimeoutError) Unwrap() error {
	return e.Cause
}

// HTTPError occurs when the endpoint answers with a non-2xx status code
type HTTPError struct {
	StatusCode int
	Body       []byte
}

// Error returns a textual representation of this HTTPError
func (e HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, string(e.Body))
}

// ParseError occurs when a response body is not valid JSON, or its shape
// cannot be coerced into the inferred schema
type ParseError struct {
	Reason string
}

// Error returns a textual representation of this ParseError
func (e ParseError) Error() string {
	return fmt.Sprintf("Unable to parse response: %s", e.Reason)
}

// SchemaInferenceFailure occurs when no sampled response could be used to infer a schema
type SchemaInferenceFailure struct {
	SampleSize int
	Excluded   int
	LastCause  error
}

// Error returns a textual representation of this SchemaInferenceFailure
func (e SchemaInferenceFailure) Error() string {
	if e.LastCause != nil {
		return fmt.Sprintf("No usable responses among %d sampled rows (%d excluded), last failure: %v", e.SampleSize, e.Excluded, e.LastCause)
	}
	return fmt.Sprintf("No usable responses among %d sampled rows (%d excluded)", e.SampleSize, e.Excluded)
}

// Unwrap returns the last exclusion cause, if any
func (e SchemaInferenceFailure) Unwrap() error {
	return e.LastCause
}
