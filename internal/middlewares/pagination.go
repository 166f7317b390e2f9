package middlewares

import (
	"context"
	"math"
	"net/http"
	"strconv"
)

// PaginationConfig bounds list endpoint page sizes.
type PaginationConfig struct {
	DefaultPage     int
	DefaultPageSize int
	// MaxPageSize caps the limit a client can request.
	MaxPageSize int
}

func DefaultPaginationConfig() *PaginationConfig {
	return &PaginationConfig{
		DefaultPage:     1,
		DefaultPageSize: 20,
		MaxPageSize:     100,
	}
}

// PaginationParams are the parsed page/limit of a request.
type PaginationParams struct {
	Page   int   `json:"page"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
	Pages  int   `json:"pages"`
}

// PaginationMeta is the pagination block of a list response.
type PaginationMeta struct {
	CurrentPage  int   `json:"current_page"`
	PerPage      int   `json:"per_page"`
	TotalPages   int   `json:"total_pages"`
	TotalRecords int64 `json:"total_records"`
	HasNext      bool  `json:"has_next"`
	HasPrev      bool  `json:"has_prev"`
}

type paginationContextKey struct{}

// ParsePagination extracts page and limit from query parameters, falling
// back to defaults and clamping to the configured maximum.
func ParsePagination(r *http.Request, config *PaginationConfig) *PaginationParams {
	if config == nil {
		config = DefaultPaginationConfig()
	}
	query := r.URL.Query()

	page := config.DefaultPage
	if s := query.Get("page"); s != "" {
		if p, err := strconv.Atoi(s); err == nil && p > 0 {
			page = p
		}
	}

	limit := config.DefaultPageSize
	if s := query.Get("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > config.MaxPageSize {
		limit = config.MaxPageSize
	}

	return &PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// SetTotal records the total row count and derives the page count.
func (p *PaginationParams) SetTotal(total int64) {
	p.Total = total
	p.Pages = int(math.Ceil(float64(total) / float64(p.Limit)))
}

func (p *PaginationParams) BuildMeta() *PaginationMeta {
	return &PaginationMeta{
		CurrentPage:  p.Page,
		PerPage:      p.Limit,
		TotalPages:   p.Pages,
		TotalRecords: p.Total,
		HasNext:      p.Page < p.Pages,
		HasPrev:      p.Page > 1,
	}
}

// Pagination parses page/limit once per request and stores the result in
// the context for handlers.
func Pagination(config *PaginationConfig) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultPaginationConfig()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			params := ParsePagination(r, config)
			ctx := context.WithValue(r.Context(), paginationContextKey{}, params)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPagination returns the request's pagination, or defaults when the
// middleware did not run.
func GetPagination(ctx context.Context) *PaginationParams {
	if params, ok := ctx.Value(paginationContextKey{}).(*PaginationParams); ok {
		return params
	}
	return &PaginationParams{Page: 1, Limit: 20}
}
