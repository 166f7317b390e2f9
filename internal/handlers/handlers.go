// Package handlers holds the shared dependencies every HTTP handler
// area receives, plus small request-parsing helpers.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"contracting_system/internal/cache"
	"contracting_system/internal/middlewares"
	"contracting_system/internal/observability"
	"contracting_system/internal/store"
)

type Handler struct {
	Store    *store.Store
	Cache    cache.Cache
	Logger   *slog.Logger
	DB       *pgxpool.Pool
	Sessions *middlewares.SessionManager
	Metrics  *observability.Metrics
}

func NewHandler(st *store.Store, c cache.Cache, l *slog.Logger, db *pgxpool.Pool, sm *middlewares.SessionManager, m *observability.Metrics) *Handler {
	return &Handler{
		Store:    st,
		Cache:    c,
		Logger:   l,
		DB:       db,
		Sessions: sm,
		Metrics:  m,
	}
}

// PathID parses a positive int32 path parameter.
func PathID(r *http.Request, name string) (int32, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return int32(id), nil
}

// QueryID parses an optional int32 query parameter, returning 0 when
// absent.
func QueryID(r *http.Request, name string) (int32, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return int32(id), nil
}

// ActorID returns the authenticated user's id from the request
// context, or nil when unauthenticated.
func ActorID(r *http.Request) *int32 {
	sess := middlewares.GetSession(r.Context())
	if sess == nil {
		return nil
	}
	id := sess.UserID
	return &id
}
