package domain

import "errors"

var (
	// ErrInvalidURLFormat is returned when the URL format is not valid
	ErrInvalidURLFormat = errors.New("invalid URL format")
	// ErrInvalidDomainFormat is returned when the domain format is not valid
	ErrInvalidDomainFormat = errors.New("invalid domain format")
)
