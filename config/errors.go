package config

import "errors"

var (
	// ErrConfigLoad is returned when a configuration source cannot be read
	ErrConfigLoad = errors.New("failed to load configuration")
	// ErrConfigUnmarshal is returned when config unmarshalling fails
	ErrConfigUnmarshal = errors.New("failed to unmarshal configuration")
	// ErrInvalidProberEngine is returned for an unknown prober engine
	ErrInvalidProberEngine = errors.New("unknown prober engine")
	// ErrInvalidValue is returned when a setting is out of range
	ErrInvalidValue = errors.New("invalid configuration value")
)
