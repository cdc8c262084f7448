package signals

import "errors"

var (
	// ErrInvalidPattern is returned when a catalog entry fails schema validation
	ErrInvalidPattern = errors.New("invalid signal pattern")
	// ErrDuplicateID is returned when two catalog entries share an id
	ErrDuplicateID = errors.New("duplicate signal pattern id")
)
