package types

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSignal is returned when a matched signal fails validation
	ErrInvalidSignal = errors.New("invalid matched signal")
	// ErrInvalidScoringResult is returned when a scoring result fails validation
	ErrInvalidScoringResult = errors.New("invalid scoring result")
	// ErrInvalidDetectionResult is returned when a detection result fails validation
	ErrInvalidDetectionResult = errors.New("invalid detection result")
	// ErrInvalidCachedResult is returned when a cached result fails validation
	ErrInvalidCachedResult = errors.New("invalid cached result")
)

const (
	minConfidence = 0
	maxConfidence = 100
)

// Validate checks the matched signal invariants
func (s MatchedSignal) Validate() error {
	switch {
	case s.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidSignal)
	case s.Label == "":
		return fmt.Errorf("%w: %s has empty label", ErrInvalidSignal, s.ID)
	case !s.Category.Valid():
		return fmt.Errorf("%w: %s has unknown category %q", ErrInvalidSignal, s.ID, s.Category)
	case s.MatchCount < 1:
		return fmt.Errorf("%w: %s has match count %d", ErrInvalidSignal, s.ID, s.MatchCount)
	}

	return nil
}

// Validate checks the scoring result invariants
func (r ScoringResult) Validate() error {
	if !r.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidScoringResult, r.Status)
	}

	if r.Confidence < minConfidence || r.Confidence > maxConfidence {
		return fmt.Errorf("%w: confidence %d out of range", ErrInvalidScoringResult, r.Confidence)
	}

	if r.TotalPossibleSignals < 1 {
		return fmt.Errorf("%w: total possible signals %d", ErrInvalidScoringResult, r.TotalPossibleSignals)
	}

	if err := validateSignals(r.Signals); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScoringResult, err)
	}

	return nil
}

// Validate checks the detection result invariants
func (d DetectionResult) Validate() error {
	if !d.Type.Valid() {
		return fmt.Errorf("%w: unknown page type %q", ErrInvalidDetectionResult, d.Type)
	}

	if d.URL == "" {
		return fmt.Errorf("%w: empty url", ErrInvalidDetectionResult)
	}

	return nil
}

// Validate checks the cached result invariants
func (c CachedResult) Validate() error {
	switch {
	case c.Domain == "":
		return fmt.Errorf("%w: empty domain", ErrInvalidCachedResult)
	case !c.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidCachedResult, c.Status)
	case c.Confidence < minConfidence || c.Confidence > maxConfidence:
		return fmt.Errorf("%w: confidence %d out of range", ErrInvalidCachedResult, c.Confidence)
	case c.Timestamp <= 0:
		return fmt.Errorf("%w: missing timestamp", ErrInvalidCachedResult)
	}

	if err := validateSignals(c.Signals); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCachedResult, err)
	}

	return nil
}

// validateSignals validates every signal in the list
func validateSignals(signals []MatchedSignal) error {
	for _, s := range signals {
		if err := s.Validate(); err != nil {
			return err
		}
	}

	return nil
}
