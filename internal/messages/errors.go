package messages

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownType is returned when the message discriminator is missing or unknown
	ErrUnknownType = errors.New("unknown message type")
	// ErrMissingDomain is returned when a message has no domain
	ErrMissingDomain = errors.New("message domain is required")
	// ErrMissingURL is returned when a scan result has no analyzed url
	ErrMissingURL = errors.New("scan result url is required")
	// ErrMissingResult is returned when a scan result carries no scoring result
	ErrMissingResult = errors.New("scan result payload is required")
)

// Message failure reasons
const (
	ReasonValidationFailed = "validation_failed"
	ReasonSendFailed       = "send_failed"
)

// maxRawLength bounds how much of an invalid payload is kept for logging
const maxRawLength = 512

// MessageError reports a message that could not be parsed or sent
type MessageError struct {
	Reason string
	// Raw is the offending payload, truncated for logging
	Raw []byte
	Err error
}

func newValidationError(raw []byte, err error) *MessageError {
	if len(raw) > maxRawLength {
		raw = raw[:maxRawLength]
	}

	return &MessageError{Reason: ReasonValidationFailed, Raw: raw, Err: err}
}

// Error implements error
func (e *MessageError) Error() string {
	return fmt.Sprintf("message %s: %v", e.Reason, e.Err)
}

// Unwrap returns the underlying error
func (e *MessageError) Unwrap() error {
	return e.Err
}
