package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisStore_BackendFailuresAreTyped(t *testing.T) {
	ctx := context.Background()
	store := NewRedisStore(unreachableRedis())
	defer store.Close()

	_, err := store.Get(ctx, "example.de")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))

	var cacheErr *Error
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, ReasonReadFailed, cacheErr.Reason)

	err = store.Put(ctx, "example.de", "https://example.de/", sampleResult())
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, ReasonWriteFailed, cacheErr.Reason)
}

func TestRedisStore_RejectsEmptyDomain(t *testing.T) {
	store := NewRedisStore(unreachableRedis())
	defer store.Close()

	_, err := store.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyDomain)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewRedisClient(ctx, "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}
