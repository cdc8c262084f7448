package compliance

import (
	"errors"
	"fmt"
)

var (
	// ErrNoURLMatch is returned when the page URL matches no relevant path pattern
	ErrNoURLMatch = errors.New("no_url_match")
	// ErrNoContentMatch is returned when the page title, heading and preview contain no legal keyword
	ErrNoContentMatch = errors.New("no_content_match")
	// ErrNoPagesFound is returned when neither the current page nor any probed path yielded text
	ErrNoPagesFound = errors.New("no_pages_found")
	// ErrInvalidPageURL is returned when the analyzed URL has no usable origin
	ErrInvalidPageURL = errors.New("invalid page url")
	// ErrReadBody is returned by fetchers when the response body cannot be read
	ErrReadBody = errors.New("failed to read response body")
	// ErrNilFetcher is returned when a prober is built without a fetcher
	ErrNilFetcher = errors.New("prober requires a fetcher")
)

// Probe failure reasons
const (
	ProbeFetchFailed = "fetch_failed"
	ProbeNotHTML     = "not_html"
	ProbeTooShort    = "too_short"
	ProbeTimeout     = "timeout"
	ProbeReadFailed  = "read_failed"
)

// DetectionError reports why the current page or the whole pipeline produced no detection
type DetectionError struct {
	// Reason is one of no_url_match, no_content_match or no_pages_found
	Reason string
	err    error
}

func newDetectionError(sentinel error) *DetectionError {
	return &DetectionError{Reason: sentinel.Error(), err: sentinel}
}

// Error implements error
func (e *DetectionError) Error() string {
	return "detection failed: " + e.Reason
}

// Unwrap returns the sentinel matching Reason
func (e *DetectionError) Unwrap() error {
	return e.err
}

// ProbeError describes a failed probe of one well-known path. It is logged
// by the prober and never returned to callers of Probe.
type ProbeError struct {
	Path   string
	Reason string
	Err    error
}

// Error implements error
func (e *ProbeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("probe %s: %s: %v", e.Path, e.Reason, e.Err)
	}

	return fmt.Sprintf("probe %s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying transport error, if any
func (e *ProbeError) Unwrap() error {
	return e.Err
}
