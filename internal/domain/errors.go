package domain

import (
	"errors"
	"fmt"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// FetchError represents a REST failure: network error, non-2xx status,
// or a payload that failed to parse. Callers keep prior state and mark
// status degraded; a FetchError is never fatal to the process.
type FetchError struct {
	Op     string // Operation that failed (e.g., "ticker24h", "ratio")
	Status int    // HTTP status code, 0 when the request never completed
	Err    error  // Underlying error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *FetchError) IsRetriable() bool {
	return true
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a FetchError for a transport or parse failure.
func NewFetchError(op string, err error) *FetchError {
	return &FetchError{Op: op, Err: err}
}

// NewFetchStatusError creates a FetchError for a non-2xx response.
func NewFetchStatusError(op string, status int) *FetchError {
	return &FetchError{Op: op, Status: status, Err: errors.New("unexpected status")}
}

// StreamError represents a socket-level error or close. It feeds the
// reconnect state machine and is logged, never surfaced to callers.
type StreamError struct {
	Op  string // "dial", "read", "write"
	Err error
}

func (e *StreamError) Error() string {
	return "stream " + e.Op + ": " + e.Err.Error()
}

func (e *StreamError) IsRetriable() bool {
	return true
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrUnknownSymbol is returned when a symbol is not in the registry.
	// The registry is snapshot-authoritative; stream data never grows it.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrEmptySnapshot is returned when the bulk fetch yields no instruments.
	ErrEmptySnapshot = errors.New("empty snapshot")

	// ErrSeriesTooShort is returned when a ratio series has fewer
	// elements than the configured index.
	ErrSeriesTooShort = errors.New("ratio series too short")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
