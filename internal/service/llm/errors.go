package llm

import (
	"errors"
	"fmt"
)

// Pre-flight failures: no network call was attempted
var (
	ErrNoCredentials = errors.New("API key not found. Please check your configuration.")
	ErrInvalidURL    = errors.New("invalid API endpoint URL")
)

// ErrInvalidResponse marks a well-formed 2xx body with no choices in it
var ErrInvalidResponse = errors.New("invalid response from AI service")

// RateLimitError is returned when the limiter refuses admission. Message is
// the human-readable limiter status, suitable for direct display.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// APIError carries a non-2xx HTTP status and the raw response body
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("AI service error: HTTP %d: %s", e.Status, e.Body)
}

// NetworkError wraps a transport failure (DNS, timeout, TLS)
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DecodingError wraps a response body that does not match the schema
type DecodingError struct {
	Err error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("response parsing error: %v", e.Err)
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}
