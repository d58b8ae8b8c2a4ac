package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// Get returns the raw payload for key; ok is false on a miss or expiry
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key for ttl, replacing any previous entry
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key; deleting an absent key is not an error
	Delete(ctx context.Context, key string) error
}
