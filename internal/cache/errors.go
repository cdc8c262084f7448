package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no fresh, valid entry exists for a domain
	ErrNotFound = errors.New("cache entry not found")
	// ErrEmptyDomain is returned when a cache operation is given an empty domain
	ErrEmptyDomain = errors.New("cache domain must not be empty")
	// ErrUnknownBackend is returned when the configured cache backend is not supported
	ErrUnknownBackend = errors.New("unknown cache backend")
	// ErrInvalidSchedule is returned when a purge schedule cannot be parsed
	ErrInvalidSchedule = errors.New("invalid purge schedule")
	// errExpired marks an entry older than the TTL
	errExpired = errors.New("cache entry expired")
)

// Cache failure reasons
const (
	ReasonReadFailed       = "read_failed"
	ReasonWriteFailed      = "write_failed"
	ReasonValidationFailed = "validation_failed"
)

// Error reports a backend or validation failure for one domain
type Error struct {
	Reason string
	Domain string
	Err    error
}

// Error implements error
func (e *Error) Error() string {
	return fmt.Sprintf("cache %s for %s: %v", e.Reason, e.Domain, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}
