package providers

import (
	"context"
)

// CacheProvider defines the short-lived key/value operations used for
// submission throttling
type CacheProvider interface {
	// Increment atomically adds one to key, starting its expiry window on
	// the first increment, and returns the new count
	Increment(ctx context.Context, key string, expirationSeconds int) (int64, error)

	// SetIfAbsent stores value only when key does not exist and reports
	// whether it was stored
	SetIfAbsent(ctx context.Context, key string, value []byte, expirationSeconds int) (bool, error)

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Ping checks the backing store is reachable
	Ping(ctx context.Context) error
}
