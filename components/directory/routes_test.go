package directory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMountPath(t *testing.T) {
	tests := []struct {
		base string
		fns  []OptionFn
		want string
	}{
		{"", nil, "/api/users"},
		{"/", nil, "/api/users"},
		{"/admin", nil, "/admin/api/users"},
		{"admin", nil, "/admin/api/users"},
		{"/admin/", []OptionFn{WithRoutePath("people")}, "/admin/people"},
		{" /v1/ ", []OptionFn{WithRoutePath("//users")}, "/v1/users"},
	}
	for _, tt := range tests {
		if got := MountPath(tt.base, tt.fns...); got != tt.want {
			t.Errorf("MountPath(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestRegisterRoutes_ServeMux(t *testing.T) {
	mux := http.NewServeMux()
	c := New(WithLookup(seededLookup()))
	pattern, err := c.RegisterRoutes(mux, "")
	if err != nil {
		t.Fatalf("RegisterRoutes: %v", err)
	}
	if pattern != "/api/users" || c.Pattern() != pattern {
		t.Fatalf("pattern = %q, component pattern = %q", pattern, c.Pattern())
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, pattern+"?username=Bret", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty HEAD body")
	}
}

func TestRegisterRoutes_ChiBindsReadMethods(t *testing.T) {
	r := chi.NewRouter()
	if _, err := RegisterRoutes(r, "/dir", WithLookup(seededLookup())); err != nil {
		t.Fatalf("RegisterRoutes: %v", err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dir/api/users?username=Bret", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/dir/api/users", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST status = %d", rec.Code)
	}
}

func TestRegisterRoutes_NilMux(t *testing.T) {
	if _, err := RegisterRoutes(nil, "/"); !errors.Is(err, ErrNilMux) {
		t.Fatalf("expected ErrNilMux, got %v", err)
	}
	c := New()
	if _, err := c.RegisterRoutes(nil, "/"); err == nil || c.Pattern() != "" {
		t.Fatalf("failed mount should not record a pattern: %v %q", err, c.Pattern())
	}
}

func TestComponent_ClientQueriesMountedRoute(t *testing.T) {
	r := chi.NewRouter()
	c := New(WithLookup(seededLookup()), WithRoutePath("people"), WithQueryParam("name"))
	if _, err := c.RegisterRoutes(r, "/v1"); err != nil {
		t.Fatalf("RegisterRoutes: %v", err)
	}
	srv := httptest.NewServer(r)
	defer srv.Close()

	client := c.Client(srv.URL + "/")
	if client.Endpoint() != srv.URL+"/v1/people" {
		t.Fatalf("endpoint = %q", client.Endpoint())
	}
	users, err := client.FindByUsername(context.Background(), "bret")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if len(users) != 1 || users[0].Username != "Bret" {
		t.Fatalf("users = %+v", users)
	}
	users, err = client.FindByUsername(context.Background(), "nobody")
	if err != nil || len(users) != 0 {
		t.Fatalf("expected no match, got %+v %v", users, err)
	}
}
