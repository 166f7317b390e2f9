package cache

import (
	"context"
	"errors"
	"time"
)

// Cache is the byte-oriented cache used for sessions and read-heavy list
// endpoints. Values are opaque; callers handle their own serialization.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	DeleteMulti(ctx context.Context, keys []string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// Config holds options shared by all implementations.
type Config struct {
	DefaultTTL time.Duration
	Prefix     string
}

func DefaultConfig() *Config {
	return &Config{
		DefaultTTL: 5 * time.Minute,
		Prefix:     "contracting:",
	}
}

var (
	ErrCacheMiss        = errors.New("cache: key not found")
	ErrCacheUnavailable = errors.New("cache: unavailable")
)
