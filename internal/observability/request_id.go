package observability

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type requestIDContextKey struct{}

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	// Header carries the id in and out. Default: X-Request-ID.
	Header string

	Generator func() string
}

func DefaultRequestIDConfig() *RequestIDConfig {
	return &RequestIDConfig{
		Header:    "X-Request-ID",
		Generator: uuid.NewString,
	}
}

// RequestID assigns each request an id, honoring one supplied by an
// upstream proxy, and echoes it in the response header.
func RequestID(config *RequestIDConfig) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultRequestIDConfig()
	}
	if config.Header == "" {
		config.Header = "X-Request-ID"
	}
	if config.Generator == nil {
		config.Generator = uuid.NewString
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(config.Header)
			if id == "" {
				id = config.Generator()
				r.Header.Set(config.Header, id)
			}
			w.Header().Set(config.Header, id)

			ctx := context.WithValue(r.Context(), requestIDContextKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID returns the request id, or "" outside the middleware.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
