package sola

import (
	"errors"
	"fmt"
)

var (
	// ErrNoClient is returned when a group is built without an API client.
	ErrNoClient = errors.New("sola: api client is required")
	// ErrServiceNotConfigured is returned when a request targets a service without a base URL.
	ErrServiceNotConfigured = errors.New("sola: service is not configured")
	// ErrConfigVersion is returned when a group config carries an unsupported version.
	ErrConfigVersion = errors.New("sola: unsupported config version")
)

// Error types reported by APIError.
const (
	ErrorTypeData    = "data_error"
	ErrorTypeUnknown = "unknown_error"
	ErrorTypeNetwork = "network_error"
)

// ErrorDetail is a single error entry returned by a Sola service.
type ErrorDetail struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// APIError is a failed call to a Sola service.
type APIError struct {
	Service    Service       `json:"-"`
	Type       string        `json:"type"`
	Errors     []ErrorDetail `json:"errors"`
	StatusCode int           `json:"statusCode,omitempty"`

	cause error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("sola %s: %s (status %d): %s", e.Service, e.Type, e.StatusCode, e.Detail())
	}
	return fmt.Sprintf("sola %s: %s: %s", e.Service, e.Type, e.Detail())
}

// Detail returns the first error detail, or a generic message.
func (e *APIError) Detail() string {
	if len(e.Errors) == 0 || e.Errors[0].Detail == "" {
		return "Unknown error"
	}
	return e.Errors[0].Detail
}

// Unwrap returns the transport error for network failures.
func (e *APIError) Unwrap() error {
	return e.cause
}

// Temporary reports whether the request may succeed when retried.
func (e *APIError) Temporary() bool {
	return e.Type == ErrorTypeNetwork || e.StatusCode >= 500
}
