package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Supported backends
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Settings selects and configures a backend
type Settings struct {
	Backend       string
	TTL           time.Duration
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open builds the store named by settings.Backend; an empty backend selects memory
func Open(ctx context.Context, settings Settings) (Store, error) {
	opts := []Option{WithTTL(settings.TTL)}

	switch strings.ToLower(strings.TrimSpace(settings.Backend)) {
	case "", BackendMemory:
		return NewMemoryStore(opts...), nil
	case BackendSQLite:
		return NewSQLiteStore(settings.SQLitePath, opts...)
	case BackendRedis:
		client, err := NewRedisClient(ctx, settings.RedisAddr, settings.RedisPassword, settings.RedisDB)
		if err != nil {
			return nil, err
		}

		return NewRedisStore(client, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, settings.Backend)
	}
}
