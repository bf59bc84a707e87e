package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// DeleteIdempotency frees a key so the request can be retried
	DeleteIdempotency(ctx context.Context, key string) error

	// AcquireLock takes a lock owned by token, returns false if someone else holds it
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)

	// ReleaseLock drops the lock only if it is still owned by token
	ReleaseLock(ctx context.Context, key, token string) error
}
