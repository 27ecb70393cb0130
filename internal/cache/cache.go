package cache

import (
	"context"
	"time"
)

// Cache define las operaciones básicas de cache usadas por el core.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
