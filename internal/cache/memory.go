package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

// MemoryCache is an in-process Cache used for tests and for running without
// Redis in development.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	config  *Config
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero = never
}

func NewMemoryCache(config *Config) *MemoryCache {
	if config == nil {
		config = DefaultConfig()
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		config:  config,
	}
}

func (mc *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	mc.mu.RLock()
	entry, ok := mc.entries[key]
	mc.mu.RUnlock()
	if !ok || entry.expired() {
		return nil, ErrCacheMiss
	}
	return entry.value, nil
}

func (mc *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = mc.config.DefaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	mc.mu.Lock()
	mc.entries[key] = memoryEntry{value: value, expiresAt: expiresAt}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Delete(_ context.Context, key string) error {
	mc.mu.Lock()
	delete(mc.entries, key)
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := mc.Get(ctx, key)
	if err == ErrCacheMiss {
		return false, nil
	}
	return err == nil, err
}

func (mc *MemoryCache) DeleteMulti(_ context.Context, keys []string) error {
	mc.mu.Lock()
	for _, key := range keys {
		delete(mc.entries, key)
	}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Keys(_ context.Context, pattern string) ([]string, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	var keys []string
	for key, entry := range mc.entries {
		if entry.expired() {
			continue
		}
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (mc *MemoryCache) Expire(_ context.Context, key string, ttl time.Duration) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	entry, ok := mc.entries[key]
	if !ok || entry.expired() {
		return ErrCacheMiss
	}
	entry.expiresAt = time.Now().Add(ttl)
	mc.entries[key] = entry
	return nil
}

func (mc *MemoryCache) Ping(context.Context) error { return nil }

func (mc *MemoryCache) Close() error {
	mc.mu.Lock()
	mc.entries = make(map[string]memoryEntry)
	mc.mu.Unlock()
	return nil
}

func (e memoryEntry) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}
