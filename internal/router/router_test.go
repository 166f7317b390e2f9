package router

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRegisterPrefixesBasePathAndVersion(t *testing.T) {
	r := NewRouter(nil, testLogger())
	r.Register(&Route{Method: "get", Path: "projects", HandlerFunc: okHandler})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	w := httptest.NewRecorder()
	r.mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/projects = %d, want 200", w.Code)
	}

	// The unprefixed path must not resolve.
	req = httptest.NewRequest(http.MethodGet, "/projects", nil)
	w = httptest.NewRecorder()
	r.mux.ServeHTTP(w, req)
	if w.Code == http.StatusOK {
		t.Fatal("unprefixed path unexpectedly routed")
	}
}

func TestRegisterRawPathSkipsPrefix(t *testing.T) {
	r := NewRouter(nil, testLogger())
	r.Register(&Route{Method: "GET", Path: "healthz", HandlerFunc: okHandler, RawPath: true})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d, want 200", w.Code)
	}
}

func TestRegisterAutoOPTIONS(t *testing.T) {
	r := NewRouter(nil, testLogger())
	r.Register(&Route{Method: "GET", Path: "projects", HandlerFunc: okHandler})
	// A second method on the same path must not panic on the OPTIONS re-register.
	r.Register(&Route{Method: "POST", Path: "projects", HandlerFunc: okHandler})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil)
	w := httptest.NewRecorder()
	r.mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("OPTIONS /api/v1/projects = %d, want 200", w.Code)
	}
}

func TestRegisterConflictPanicsInDev(t *testing.T) {
	r := NewRouter(nil, testLogger())
	r.Register(&Route{Method: "GET", Path: "projects", HandlerFunc: okHandler})

	defer func() {
		if recover() == nil {
			t.Fatal("duplicate registration did not panic in dev mode")
		}
	}()
	r.Register(&Route{Method: "GET", Path: "projects", HandlerFunc: okHandler})
}

func TestRegisterGroupPrefixAndMiddlewareOrder(t *testing.T) {
	var order []string
	mark := func(name string) MiddlewaresType {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, req)
			})
		}
	}

	r := NewRouter(nil, testLogger())
	r.RegisterGroup(&RouteGroup{
		Prefix:      "workers",
		Middlewares: []MiddlewaresType{mark("group")},
		Routes: []*Route{
			{Method: "GET", Path: "{id}", HandlerFunc: okHandler, Middlewares: []MiddlewaresType{mark("route")}},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/workers/7", nil)
	w := httptest.NewRecorder()
	r.mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/workers/7 = %d, want 200", w.Code)
	}
	if len(order) != 2 || order[0] != "group" || order[1] != "route" {
		t.Fatalf("middleware order = %v, want [group route]", order)
	}
}

func TestGlobalMiddlewareAppliesToHandle(t *testing.T) {
	var hit bool
	global := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			hit = true
			next.ServeHTTP(w, req)
		})
	}

	r := NewRouter(nil, testLogger(), global)
	r.Handle("GET /metrics", http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	r.mux.ServeHTTP(httptest.NewRecorder(), req)
	if !hit {
		t.Fatal("global middleware skipped for raw Handle pattern")
	}
}

func TestShutdownRejectsNewRequests(t *testing.T) {
	r := NewRouter(nil, testLogger())
	r.Register(&Route{Method: "GET", Path: "projects", HandlerFunc: okHandler})
	r.isShuttingDown.Store(true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	w := httptest.NewRecorder()
	r.mux.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status during shutdown = %d, want 503", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header during shutdown")
	}
}

func TestBodySizeLimit(t *testing.T) {
	cfg := DefaultRouterConfig()
	cfg.Security.MaxRequestBodySize = 16

	r := NewRouter(cfg, testLogger())
	r.Register(&Route{Method: "POST", Path: "projects", HandlerFunc: func(w http.ResponseWriter, req *http.Request) {
		if _, err := io.ReadAll(req.Body); err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", strings.NewReader(strings.Repeat("x", 64)))
	w := httptest.NewRecorder()
	r.mux.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized body = %d, want 413", w.Code)
	}
}

func TestSanitizePath(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"projects", "projects"},
		{"/projects/", "projects"},
		{"projects//archive", "projects/archive"},
		{"../../etc/passwd", ""},
		{".", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := sanitizePath(c.in); got != c.want {
			t.Errorf("sanitizePath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
