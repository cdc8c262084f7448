// Package cache stores scoring results per domain with a fixed freshness window
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/theopenlane/eushield/internal/types"
)

const (
	// DefaultTTL is how long a stored result stays fresh
	DefaultTTL = 7 * 24 * time.Hour
	// KeyPrefix namespaces cache keys in shared key-value backends
	KeyPrefix = "eushield_"
)

// Store is a per-domain result cache. Get returns ErrNotFound for absent,
// expired and invalid entries; the latter two are purged on read.
type Store interface {
	Get(ctx context.Context, domain string) (*types.CachedResult, error)
	Put(ctx context.Context, domain, analyzedURL string, result types.ScoringResult) error
	Clear(ctx context.Context, domain string) error
	Close() error
}

// Options configures a store
type Options struct {
	ttl time.Duration
	now func() time.Time
}

// Option is a functional option for configuring a store
type Option func(*Options)

// WithTTL sets the freshness window
func WithTTL(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// WithClock replaces the time source used to stamp and expire entries
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		if now != nil {
			o.now = now
		}
	}
}

func newOptions(opts []Option) *Options {
	o := &Options{
		ttl: DefaultTTL,
		now: time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Key returns the backend key for domain
func Key(domain string) string {
	return KeyPrefix + domain
}

// normalizeDomain lower-cases and trims domain, rejecting empty input
func normalizeDomain(domain string) (string, error) {
	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if domain == "" {
		return "", ErrEmptyDomain
	}

	return domain, nil
}

// encode stamps result with the current time and serializes it
func (o *Options) encode(domain, analyzedURL string, result types.ScoringResult) ([]byte, error) {
	entry := types.NewCachedResult(domain, analyzedURL, result, o.now().UnixMilli())

	if err := entry.Validate(); err != nil {
		return nil, &Error{Reason: ReasonValidationFailed, Domain: domain, Err: err}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return nil, &Error{Reason: ReasonWriteFailed, Domain: domain, Err: err}
	}

	return data, nil
}

// decode parses and validates a stored entry. It returns errExpired for a
// well-formed entry older than the TTL and a validation error for anything
// that cannot be trusted.
func (o *Options) decode(domain string, data []byte) (*types.CachedResult, error) {
	var entry types.CachedResult

	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, &Error{Reason: ReasonValidationFailed, Domain: domain, Err: err}
	}

	if err := entry.Validate(); err != nil {
		return nil, &Error{Reason: ReasonValidationFailed, Domain: domain, Err: err}
	}

	if entry.Domain != domain {
		return nil, &Error{Reason: ReasonValidationFailed, Domain: domain, Err: fmt.Errorf("entry belongs to %q", entry.Domain)}
	}

	if o.now().Sub(time.UnixMilli(entry.Timestamp)) > o.ttl {
		return nil, errExpired
	}

	if entry.Signals == nil {
		entry.Signals = []types.MatchedSignal{}
	}

	return &entry, nil
}
