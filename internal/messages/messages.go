// Package messages defines the discriminated message schema exchanged with
// the browser add-on
package messages

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/theopenlane/eushield/internal/types"
)

// Type discriminates the message payload
type Type string

const (
	// TypeCheckPage asks for the page of a domain to be analyzed
	TypeCheckPage Type = "CHECK_PAGE"
	// TypeScanResult reports a completed analysis for a domain
	TypeScanResult Type = "SCAN_RESULT"
	// TypeGetResult asks for the stored result of a domain
	TypeGetResult Type = "GET_RESULT"
	// TypeForceRescan invalidates the stored result of a domain and re-analyzes it
	TypeForceRescan Type = "FORCE_RESCAN"
)

// Valid reports whether t is a known message type
func (t Type) Valid() bool {
	switch t {
	case TypeCheckPage, TypeScanResult, TypeGetResult, TypeForceRescan:
		return true
	default:
		return false
	}
}

// Message is one transport message. URL and Result are only meaningful for
// SCAN_RESULT, where both are required.
type Message struct {
	Type   Type                 `json:"type"`
	Domain string               `json:"domain"`
	URL    string               `json:"url,omitempty"`
	Result *types.ScoringResult `json:"result,omitempty"`
}

// NewCheckPage builds a CHECK_PAGE message
func NewCheckPage(domain string) Message {
	return Message{Type: TypeCheckPage, Domain: domain}
}

// NewScanResult builds a SCAN_RESULT message
func NewScanResult(domain, url string, result types.ScoringResult) Message {
	return Message{Type: TypeScanResult, Domain: domain, URL: url, Result: &result}
}

// NewGetResult builds a GET_RESULT message
func NewGetResult(domain string) Message {
	return Message{Type: TypeGetResult, Domain: domain}
}

// NewForceRescan builds a FORCE_RESCAN message
func NewForceRescan(domain string) Message {
	return Message{Type: TypeForceRescan, Domain: domain}
}

// Validate checks the payload required by the message type
func (m Message) Validate() error {
	if !m.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}

	if strings.TrimSpace(m.Domain) == "" {
		return fmt.Errorf("%w: %s", ErrMissingDomain, m.Type)
	}

	if m.Type != TypeScanResult {
		return nil
	}

	if m.URL == "" {
		return ErrMissingURL
	}

	if m.Result == nil {
		return ErrMissingResult
	}

	return m.Result.Validate()
}

// Parse decodes and validates a raw message. Unknown fields are ignored.
func Parse(raw []byte) (*Message, error) {
	var m Message

	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, newValidationError(raw, err)
	}

	if err := m.Validate(); err != nil {
		return nil, newValidationError(raw, err)
	}

	return &m, nil
}

// Encode validates m and serializes it
func Encode(m Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, &MessageError{Reason: ReasonValidationFailed, Err: err}
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, &MessageError{Reason: ReasonSendFailed, Err: err}
	}

	return data, nil
}
