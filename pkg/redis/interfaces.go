package redis

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested key does not exist. Callers that
// treat a missing document as an expected steady state should check for it
// with errors.Is.
var ErrNotFound = errors.New("key not found")

// Client represents a Redis client interface for testing and abstraction.
// Insight documents and learning records are stored as JSON string values.
type Client interface {
	// Set sets a key to a value with an optional TTL (0 means no expiry)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Get gets the value of a key; returns ErrNotFound if it does not exist
	Get(ctx context.Context, key string) (string, error)

	// MGet gets the values of multiple keys in one round trip; missing keys
	// yield empty strings at the corresponding positions
	MGet(ctx context.Context, keys ...string) ([]string, error)

	// Del deletes one or more keys
	Del(ctx context.Context, keys ...string) error

	// Keys returns all keys matching a pattern
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Expire sets a TTL on a key
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Ping checks the connection to Redis
	Ping(ctx context.Context) error

	// Close closes the Redis connection
	Close() error
}
