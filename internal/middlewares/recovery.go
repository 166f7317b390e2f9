package middlewares

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// RecoveryConfig configures panic recovery.
type RecoveryConfig struct {
	Logger *slog.Logger

	// DisableStackTrace omits the stack from log output.
	DisableStackTrace bool

	// RecoveryHandler writes the error response after the panic is logged.
	RecoveryHandler func(w http.ResponseWriter, r *http.Request, err any)
}

func DefaultRecoveryConfig() *RecoveryConfig {
	return &RecoveryConfig{
		RecoveryHandler: defaultRecoveryHandler,
	}
}

func defaultRecoveryHandler(w http.ResponseWriter, r *http.Request, _ any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]any{
		"error":      "Internal Server Error",
		"message":    "An unexpected error occurred",
		"request_id": r.Header.Get("X-Request-ID"),
	})
}

// Recovery turns handler panics into logged 500 responses.
func Recovery(config *RecoveryConfig) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultRecoveryConfig()
	}
	if config.RecoveryHandler == nil {
		config.RecoveryHandler = defaultRecoveryHandler
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					fields := []any{
						"method", r.Method,
						"path", r.URL.Path,
						"client_ip", getClientIP(r),
						"error", fmt.Sprintf("%v", err),
					}
					if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
						fields = append(fields, "request_id", requestID)
					}
					if !config.DisableStackTrace {
						fields = append(fields, "stack", string(debug.Stack()))
					}
					logger.Error("panic recovered", fields...)

					config.RecoveryHandler(w, r, err)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
