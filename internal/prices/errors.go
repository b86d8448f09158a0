package prices

import (
	"errors"
	"fmt"
)

// ConfigurationError means the client cannot be used as configured.
// No request is attempted.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "pricecharting: configuration: " + e.Reason
}

// TimeoutError is returned when a request exceeds the client timeout.
type TimeoutError struct {
	Endpoint string
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("pricecharting: %s timed out", e.Endpoint)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// NetworkError carries a non-2xx HTTP status. StatusCode is 0 when the
// request never got a response; Err then holds the transport failure.
type NetworkError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("pricecharting: %s: %v", e.Endpoint, e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("pricecharting: %s: HTTP %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("pricecharting: %s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is an explicit error status reported by the catalog.
type APIError struct {
	Endpoint string
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pricecharting: %s: %s", e.Endpoint, e.Message)
}

// NoMatchError means the search worked but nothing cleared the confidence floor.
type NoMatchError struct {
	Query string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("pricecharting: no match for %q", e.Query)
}

func IsNoMatch(err error) bool {
	var nm *NoMatchError
	return errors.As(err, &nm)
}
