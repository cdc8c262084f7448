package cache

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/theopenlane/eushield/internal/types"
)

// RedisStore keeps entries in Redis under KeyPrefix with a native expiry
// equal to the TTL. Timestamps are still checked on read.
type RedisStore struct {
	client  *redis.Client
	options *Options
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client, opts ...Option) *RedisStore {
	return &RedisStore{client: client, options: newOptions(opts)}
}

// NewRedisClient connects to addr and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, &Error{Reason: ReasonReadFailed, Domain: addr, Err: err}
	}

	return client, nil
}

// Get returns the fresh entry for domain or ErrNotFound
func (s *RedisStore) Get(ctx context.Context, domain string) (*types.CachedResult, error) {
	domain, err := normalizeDomain(domain)
	if err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, Key(domain)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, &Error{Reason: ReasonReadFailed, Domain: domain, Err: err}
	}

	entry, err := s.options.decode(domain, data)
	if err != nil {
		if !errors.Is(err, errExpired) {
			log.Warn().Err(err).Str("domain", domain).Msg("purging invalid cache entry")
		}

		if clearErr := s.Clear(ctx, domain); clearErr != nil {
			log.Warn().Err(clearErr).Str("domain", domain).Msg("failed to purge cache entry")
		}

		return nil, ErrNotFound
	}

	return entry, nil
}

// Put stores result for domain with the TTL as key expiry
func (s *RedisStore) Put(ctx context.Context, domain, analyzedURL string, result types.ScoringResult) error {
	domain, err := normalizeDomain(domain)
	if err != nil {
		return err
	}

	data, err := s.options.encode(domain, analyzedURL, result)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, Key(domain), data, s.options.ttl).Err(); err != nil {
		return &Error{Reason: ReasonWriteFailed, Domain: domain, Err: err}
	}

	return nil
}

// Clear removes the entry for domain
func (s *RedisStore) Clear(ctx context.Context, domain string) error {
	domain, err := normalizeDomain(domain)
	if err != nil {
		return err
	}

	if err := s.client.Del(ctx, Key(domain)).Err(); err != nil {
		return &Error{Reason: ReasonWriteFailed, Domain: domain, Err: err}
	}

	return nil
}

// Close closes the underlying client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
