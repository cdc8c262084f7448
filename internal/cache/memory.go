package cache

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/theopenlane/eushield/internal/types"
)

// MemoryStore is a concurrency-safe in-process Store
type MemoryStore struct {
	// mu guards data
	mu sync.RWMutex
	// data maps normalized domains to encoded entries
	data    map[string][]byte
	options *Options
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		data:    make(map[string][]byte),
		options: newOptions(opts),
	}
}

// Get returns the fresh entry for domain or ErrNotFound
func (s *MemoryStore) Get(_ context.Context, domain string) (*types.CachedResult, error) {
	domain, err := normalizeDomain(domain)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, ok := s.data[domain]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	entry, err := s.options.decode(domain, data)
	if err != nil {
		if !errors.Is(err, errExpired) {
			log.Warn().Err(err).Str("domain", domain).Msg("purging invalid cache entry")
		}

		s.deleteIfUnchanged(domain, data)

		return nil, ErrNotFound
	}

	return entry, nil
}

// deleteIfUnchanged removes domain's entry only while it still holds stale,
// so a Put that raced the read is kept
func (s *MemoryStore) deleteIfUnchanged(domain string, stale []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.data[domain]; ok && bytes.Equal(current, stale) {
		delete(s.data, domain)
	}
}

// Put stores result for domain, stamped with the current time
func (s *MemoryStore) Put(_ context.Context, domain, analyzedURL string, result types.ScoringResult) error {
	domain, err := normalizeDomain(domain)
	if err != nil {
		return err
	}

	data, err := s.options.encode(domain, analyzedURL, result)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data[domain] = data
	s.mu.Unlock()

	return nil
}

// Clear removes the entry for domain
func (s *MemoryStore) Clear(_ context.Context, domain string) error {
	domain, err := normalizeDomain(domain)
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.data, domain)
	s.mu.Unlock()

	return nil
}

// PurgeExpired drops every entry that is expired or cannot be decoded
func (s *MemoryStore) PurgeExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64

	for domain, data := range s.data {
		if _, err := s.options.decode(domain, data); err != nil {
			delete(s.data, domain)
			removed++
		}
	}

	return removed, nil
}

// Len returns the number of stored entries, fresh or not
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}

// Close implements Store
func (s *MemoryStore) Close() error {
	return nil
}
