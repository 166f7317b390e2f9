package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"contracting_system/internal/cache"
)

// HealthStatus is the state of one component or the whole service.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// HealthConfig wires the dependencies the health endpoint probes.
type HealthConfig struct {
	Logger *slog.Logger

	DatabasePool *pgxpool.Pool
	Cache        cache.Cache

	CheckTimeout      time.Duration
	IncludeSystemInfo bool
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status    HealthStatus           `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Uptime    string                 `json:"uptime,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	System    *SystemInfo            `json:"system,omitempty"`
}

type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Error   string       `json:"error,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

type SystemInfo struct {
	Goroutines  int    `json:"goroutines"`
	MemoryAlloc uint64 `json:"memory_alloc_mb"`
	NumCPU      int    `json:"num_cpu"`
	NumGC       uint32 `json:"num_gc"`
}

var startTime = time.Now()

func DefaultHealthConfig() *HealthConfig {
	return &HealthConfig{
		CheckTimeout:      5 * time.Second,
		IncludeSystemInfo: true,
	}
}

// HealthHandler probes the database and cache. Cache failure degrades the
// service; database failure marks it unhealthy and returns 503.
func HealthHandler(config *HealthConfig) http.HandlerFunc {
	if config == nil {
		config = DefaultHealthConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.CheckTimeout == 0 {
		config.CheckTimeout = 5 * time.Second
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), config.CheckTimeout)
		defer cancel()

		response := &HealthResponse{
			Status:    StatusHealthy,
			Timestamp: time.Now().Format(time.RFC3339),
			Uptime:    time.Since(startTime).String(),
			Checks:    make(map[string]CheckResult),
		}

		if config.DatabasePool != nil {
			start := time.Now()
			if err := config.DatabasePool.Ping(ctx); err != nil {
				logger.Error("health check: database unreachable", "error", err)
				response.Checks["database"] = CheckResult{
					Status:  StatusUnhealthy,
					Error:   err.Error(),
					Latency: time.Since(start).String(),
				}
				response.Status = StatusUnhealthy
			} else {
				response.Checks["database"] = CheckResult{
					Status:  StatusHealthy,
					Latency: time.Since(start).String(),
				}
			}
		}

		if config.Cache != nil {
			start := time.Now()
			if err := config.Cache.Ping(ctx); err != nil {
				logger.Warn("health check: cache unreachable", "error", err)
				response.Checks["cache"] = CheckResult{
					Status:  StatusUnhealthy,
					Error:   err.Error(),
					Latency: time.Since(start).String(),
				}
				if response.Status == StatusHealthy {
					response.Status = StatusDegraded
				}
			} else {
				response.Checks["cache"] = CheckResult{
					Status:  StatusHealthy,
					Latency: time.Since(start).String(),
				}
			}
		}

		if config.IncludeSystemInfo {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			response.System = &SystemInfo{
				Goroutines:  runtime.NumGoroutine(),
				MemoryAlloc: m.Alloc / 1024 / 1024,
				NumCPU:      runtime.NumCPU(),
				NumGC:       m.NumGC,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if response.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}

// LivenessHandler answers GET /live: the process is up.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
	}
}

// ReadinessHandler answers GET /ready: the service can take traffic.
func ReadinessHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "error": err.Error()})
				return
			}
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	}
}
