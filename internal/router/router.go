// Package router builds the HTTP mux from declarative route definitions.
// Routes register as "METHOD /basepath/version/path" patterns on the
// standard library ServeMux, with conflict detection at registration time.
package router

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"
)

const (
	DefaultMaxRequestBodySize = 10 << 20
	DefaultMaxHeaderBytes     = 1 << 20
	DefaultReadHeaderTimeout  = 10 * time.Second
)

// MiddlewaresType is the middleware function signature.
type MiddlewaresType func(http.Handler) http.Handler

// Route is a single HTTP route.
type Route struct {
	Method      string
	Path        string
	HandlerFunc http.HandlerFunc
	Middlewares []MiddlewaresType
	Category    string

	// RawPath skips base path and version prefixing.
	RawPath bool
}

// RouteGroup carries a shared prefix and middleware stack for its routes.
type RouteGroup struct {
	Prefix      string
	Middlewares []MiddlewaresType
	Routes      []*Route
	Category    string
}

// SecurityConfig holds server-level request limits.
type SecurityConfig struct {
	MaxRequestBodySize int64
	MaxHeaderBytes     int
}

// RouterConfig holds all router and server configuration.
type RouterConfig struct {
	Version  string
	BasePath string
	Port     string
	Mode     string // "dev" or "prod"

	TLSCertFile string
	TLSKeyFile  string

	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration

	Security *SecurityConfig
}

func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Version:           "v1",
		BasePath:          "/api",
		Port:              "8080",
		Mode:              "dev",
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		Security: &SecurityConfig{
			MaxRequestBodySize: DefaultMaxRequestBodySize,
			MaxHeaderBytes:     DefaultMaxHeaderBytes,
		},
	}
}

type compiledRoute struct {
	pattern      string
	registeredAt time.Time
}

// Router owns the mux and the HTTP server lifecycle.
type Router struct {
	config            *RouterConfig
	mux               *http.ServeMux
	server            *http.Server
	logger            *slog.Logger
	globalMiddlewares []MiddlewaresType

	routesMu          sync.Mutex
	compiledRoutes    map[string]compiledRoute
	registeredOPTIONS map[string]bool

	activeRequests atomic.Int64
	isShuttingDown atomic.Bool
}

// NewRouter builds a router with the given global middleware chain. The
// body size limit and shutdown awareness always run first.
func NewRouter(config *RouterConfig, logger *slog.Logger, globalMiddlewares ...MiddlewaresType) *Router {
	if config == nil {
		config = DefaultRouterConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.Security == nil {
		config.Security = &SecurityConfig{}
	}
	if config.Security.MaxRequestBodySize == 0 {
		config.Security.MaxRequestBodySize = DefaultMaxRequestBodySize
	}
	if config.Security.MaxHeaderBytes == 0 {
		config.Security.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if config.ReadHeaderTimeout == 0 {
		config.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}

	r := &Router{
		config:            config,
		mux:               http.NewServeMux(),
		logger:            logger,
		compiledRoutes:    make(map[string]compiledRoute),
		registeredOPTIONS: make(map[string]bool),
	}

	r.globalMiddlewares = append(r.globalMiddlewares, r.bodySizeLimitMiddleware(), r.shutdownAwareMiddleware())
	r.globalMiddlewares = append(r.globalMiddlewares, globalMiddlewares...)

	return r
}

// Handle mounts a raw handler at an exact pattern, bypassing prefixing.
// Used for /metrics, /health and similar infrastructure endpoints.
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, r.chainMiddlewares(handler, r.globalMiddlewares))
}

// Register adds a single route.
func (r *Router) Register(route *Route) {
	route.Method = strings.ToUpper(route.Method)
	finalPattern := r.preparePattern(route)

	r.routesMu.Lock()
	if existing, exists := r.compiledRoutes[finalPattern]; exists {
		err := fmt.Errorf("route conflict: %s already registered at %s",
			finalPattern, existing.registeredAt.Format(time.RFC3339))
		r.routesMu.Unlock()
		if r.config.Mode == "dev" {
			panic(err)
		}
		r.logger.Warn("route conflict, overwriting", "error", err)
		r.routesMu.Lock()
	}
	r.compiledRoutes[finalPattern] = compiledRoute{pattern: finalPattern, registeredAt: time.Now()}
	r.routesMu.Unlock()

	allMiddlewares := append(append([]MiddlewaresType{}, r.globalMiddlewares...), route.Middlewares...)
	handler := r.chainMiddlewares(route.HandlerFunc, allMiddlewares)
	r.mux.Handle(finalPattern, handler)

	// CORS preflight for every registered path.
	if route.Method != http.MethodOptions {
		optionsPattern := strings.Replace(finalPattern, route.Method+" ", "OPTIONS ", 1)
		r.routesMu.Lock()
		seen := r.registeredOPTIONS[optionsPattern]
		if !seen {
			r.registeredOPTIONS[optionsPattern] = true
		}
		r.routesMu.Unlock()
		if !seen {
			optionsHandler := r.chainMiddlewares(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(http.StatusOK)
			}), allMiddlewares)
			r.mux.Handle(optionsPattern, optionsHandler)
		}
	}

	r.logger.Debug("route registered", "pattern", finalPattern, "category", route.Category)
}

// RegisterGroup registers routes sharing a prefix and middleware stack.
func (r *Router) RegisterGroup(group *RouteGroup) {
	if group == nil {
		return
	}
	for _, route := range group.Routes {
		if route.Category == "" {
			route.Category = group.Category
		}
		if group.Prefix != "" {
			prefix := strings.TrimSuffix(group.Prefix, "/")
			route.Path = prefix + "/" + strings.TrimPrefix(route.Path, "/")
		}
		if len(group.Middlewares) > 0 {
			route.Middlewares = append(append([]MiddlewaresType{}, group.Middlewares...), route.Middlewares...)
		}
		r.Register(route)
	}
	r.logger.Info("route group registered", "prefix", group.Prefix, "routes", len(group.Routes))
}

// preparePattern builds the final "METHOD /base/version/path" pattern.
func (r *Router) preparePattern(route *Route) string {
	p := sanitizePath(route.Path)
	if route.RawPath || p == "" {
		if p == "" {
			return route.Method + " /"
		}
		return route.Method + " /" + p
	}

	var b strings.Builder
	b.WriteString(route.Method)
	b.WriteString(" /")
	if base := sanitizePath(r.config.BasePath); base != "" {
		b.WriteString(base)
		b.WriteString("/")
	}
	if r.config.Version != "" {
		b.WriteString(r.config.Version)
		b.WriteString("/")
	}
	b.WriteString(p)
	return b.String()
}

// sanitizePath cleans the path and blocks traversal sequences.
func sanitizePath(p string) string {
	cleaned := strings.Trim(path.Clean(p), "/")
	if cleaned == "" || cleaned == "." || strings.Contains(cleaned, "..") {
		return ""
	}
	return cleaned
}

func (r *Router) chainMiddlewares(handler http.Handler, middlewares []MiddlewaresType) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

func (r *Router) bodySizeLimitMiddleware() MiddlewaresType {
	maxSize := r.config.Security.MaxRequestBodySize
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			req.Body = http.MaxBytesReader(w, req.Body, maxSize)
			next.ServeHTTP(w, req)
		})
	}
}

// shutdownAwareMiddleware rejects new requests once shutdown has begun and
// tracks in-flight requests so Shutdown can drain them.
func (r *Router) shutdownAwareMiddleware() MiddlewaresType {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if r.isShuttingDown.Load() {
				w.Header().Set("Connection", "close")
				w.Header().Set("Retry-After", "30")
				http.Error(w, "Service Unavailable - Shutting Down", http.StatusServiceUnavailable)
				return
			}
			r.activeRequests.Add(1)
			defer r.activeRequests.Add(-1)
			next.ServeHTTP(w, req)
		})
	}
}

// Start blocks serving HTTP (or HTTPS when certificates are configured)
// until the listener closes.
func (r *Router) Start() error {
	r.server = &http.Server{
		Addr:              ":" + r.config.Port,
		Handler:           r.mux,
		ReadTimeout:       r.config.ReadTimeout,
		WriteTimeout:      r.config.WriteTimeout,
		IdleTimeout:       r.config.IdleTimeout,
		ReadHeaderTimeout: r.config.ReadHeaderTimeout,
		MaxHeaderBytes:    r.config.Security.MaxHeaderBytes,
	}

	if r.config.TLSCertFile != "" && r.config.TLSKeyFile != "" {
		r.logger.Info("server starting", "port", r.config.Port, "tls", true, "mode", r.config.Mode)
		return r.server.ListenAndServeTLS(r.config.TLSCertFile, r.config.TLSKeyFile)
	}
	r.logger.Info("server starting", "port", r.config.Port, "tls", false, "mode", r.config.Mode)
	return r.server.ListenAndServe()
}

// Shutdown stops accepting requests and drains in-flight ones.
func (r *Router) Shutdown(timeout time.Duration) error {
	if r.server == nil {
		return nil
	}
	r.isShuttingDown.Store(true)
	r.logger.Info("server shutting down", "active_requests", r.activeRequests.Load(), "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return r.server.Shutdown(ctx)
}
