package middlewares

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// responseWriter captures status and size for the access log.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(data []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(data)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

// LoggerConfig configures the access log middleware.
type LoggerConfig struct {
	Logger           *slog.Logger
	SkipPaths        []string
	IncludeUserAgent bool
}

func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Logger:           slog.Default(),
		SkipPaths:        []string{"/health", "/metrics", "/favicon.ico"},
		IncludeUserAgent: true,
	}
}

// Logger writes one structured line per request, leveled by status code.
func Logger(config *LoggerConfig) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultLoggerConfig()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range config.SkipPaths {
				if r.URL.Path == skip {
					next.ServeHTTP(w, r)
					return
				}
			}

			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"latency_ms", duration.Milliseconds(),
				"client_ip", getClientIP(r),
				"response_size", wrapped.bytesWritten,
			}
			if len(r.URL.RawQuery) > 0 {
				fields = append(fields, "query", r.URL.RawQuery)
			}
			if config.IncludeUserAgent {
				if ua := r.Header.Get("User-Agent"); ua != "" {
					fields = append(fields, "user_agent", ua)
				}
			}
			if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
				fields = append(fields, "request_id", requestID)
			}

			switch {
			case wrapped.statusCode >= 500:
				config.Logger.Error("server error", fields...)
			case wrapped.statusCode >= 400:
				config.Logger.Warn("client error", fields...)
			default:
				config.Logger.Info("request handled", fields...)
			}
		})
	}
}

// getClientIP prefers proxy headers over the socket address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
