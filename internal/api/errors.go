package api

import "errors"

var (
	// ErrInvalidRequestBody is returned when the request body cannot be decoded
	ErrInvalidRequestBody = errors.New("invalid request body")
	// ErrMultipleJSONObjects is returned when the request body contains more than one JSON object
	ErrMultipleJSONObjects = errors.New("request body must contain a single JSON object")
	// ErrURLRequired is returned when an analyze request has no url
	ErrURLRequired = errors.New("url required")
	// ErrDomainRequired is returned when a rescan or lookup has no domain
	ErrDomainRequired = errors.New("domain required")
	// ErrResultNotFound is returned when no fresh result is stored for a domain
	ErrResultNotFound = errors.New("no stored result for domain")
	// ErrAnalyzerNotConfigured is returned when the router is built without an analyzer
	ErrAnalyzerNotConfigured = errors.New("analyzer not configured")
)
