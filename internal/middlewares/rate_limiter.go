package middlewares

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Token bucket rate limiting, keyed by client IP. Used on the login route
// to slow down credential guessing.

// RateLimitConfig configures the limiter.
type RateLimitConfig struct {
	Logger *slog.Logger

	// Capacity is the bucket size (burst allowance).
	Capacity int

	// RefillRate is tokens added per second.
	RefillRate float64

	// KeyGenerator derives the bucket key. Defaults to client IP.
	KeyGenerator func(r *http.Request) string
}

func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Capacity:   10,
		RefillRate: 0.5,
	}
}

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

type bucketStore struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
}

func newBucketStore() *bucketStore {
	s := &bucketStore{buckets: make(map[string]*tokenBucket)}
	go s.cleanup()
	return s
}

func (s *bucketStore) allow(key string, capacity int, refillRate float64) (bool, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	bucket, ok := s.buckets[key]
	if !ok {
		bucket = &tokenBucket{tokens: float64(capacity), lastRefill: now}
		s.buckets[key] = bucket
	}

	elapsed := now.Sub(bucket.lastRefill).Seconds()
	bucket.tokens = math.Min(float64(capacity), bucket.tokens+elapsed*refillRate)
	bucket.lastRefill = now

	if bucket.tokens >= 1 {
		bucket.tokens--
		return true, 0
	}
	retryAfter := time.Duration((1 - bucket.tokens) / refillRate * float64(time.Second))
	return false, retryAfter
}

// cleanup drops buckets idle long enough to be full again.
func (s *bucketStore) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		cutoff := time.Now().Add(-30 * time.Minute)
		for key, bucket := range s.buckets {
			if bucket.lastRefill.Before(cutoff) {
				delete(s.buckets, key)
			}
		}
		s.mu.Unlock()
	}
}

// RateLimit returns a token bucket middleware.
func RateLimit(config *RateLimitConfig) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	if config.Capacity <= 0 {
		config.Capacity = 10
	}
	if config.RefillRate <= 0 {
		config.RefillRate = 0.5
	}
	if config.KeyGenerator == nil {
		config.KeyGenerator = getClientIP
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store := newBucketStore()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := config.KeyGenerator(r)
			allowed, retryAfter := store.allow(key, config.Capacity, config.RefillRate)
			if !allowed {
				logger.Warn("rate limit exceeded", "key", key, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]any{
					"status":  "error",
					"message": "too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
