package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParsePaginationDefaults(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	p := ParsePagination(r, nil)
	if p.Page != 1 || p.Limit != 20 || p.Offset != 0 {
		t.Fatalf("defaults = page %d limit %d offset %d", p.Page, p.Limit, p.Offset)
	}
}

func TestParsePaginationExplicit(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/projects?page=3&limit=25", nil)
	p := ParsePagination(r, nil)
	if p.Page != 3 || p.Limit != 25 {
		t.Fatalf("page %d limit %d, want 3 and 25", p.Page, p.Limit)
	}
	if p.Offset != 50 {
		t.Fatalf("offset = %d, want 50", p.Offset)
	}
}

func TestParsePaginationClampsLimit(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/projects?limit=5000", nil)
	p := ParsePagination(r, nil)
	if p.Limit != 100 {
		t.Fatalf("limit = %d, want clamped to 100", p.Limit)
	}
}

func TestParsePaginationRejectsGarbage(t *testing.T) {
	for _, q := range []string{"page=-1&limit=-5", "page=abc&limit=xyz", "page=0&limit=0"} {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/projects?"+q, nil)
		p := ParsePagination(r, nil)
		if p.Page != 1 || p.Limit != 20 {
			t.Fatalf("query %q: page %d limit %d, want defaults", q, p.Page, p.Limit)
		}
	}
}

func TestSetTotalAndMeta(t *testing.T) {
	p := &PaginationParams{Page: 2, Limit: 20, Offset: 20}
	p.SetTotal(45)
	if p.Pages != 3 {
		t.Fatalf("pages = %d, want 3", p.Pages)
	}
	meta := p.BuildMeta()
	if !meta.HasNext || !meta.HasPrev {
		t.Fatalf("meta = %+v, want has_next and has_prev on middle page", meta)
	}
	if meta.TotalRecords != 45 {
		t.Fatalf("total_records = %d, want 45", meta.TotalRecords)
	}
}

func TestPaginationMiddlewareStoresParams(t *testing.T) {
	var got *PaginationParams
	handler := Pagination(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetPagination(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/projects?page=2&limit=10", nil)
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if got == nil || got.Page != 2 || got.Limit != 10 || got.Offset != 10 {
		t.Fatalf("params from context = %+v", got)
	}
}

func TestGetPaginationWithoutMiddleware(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	p := GetPagination(r.Context())
	if p.Page != 1 || p.Limit != 20 {
		t.Fatalf("fallback = page %d limit %d", p.Page, p.Limit)
	}
}
