package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/catalog"
)

func TestSkills_FixedListAfterDelay(t *testing.T) {
	svc := catalog.New(catalog.WithDelay(30 * time.Millisecond))

	start := time.Now()
	skills, err := svc.Skills(context.Background())
	if err != nil {
		t.Fatalf("skills: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("expected delay, returned after %s", elapsed)
	}
	if diff := cmp.Diff(catalog.DefaultSkills(), skills); diff != "" {
		t.Fatalf("skills mismatch (-want +got):\n%s", diff)
	}
	if len(skills) != 4 {
		t.Fatalf("expected four skills, got %d", len(skills))
	}
}

func TestSkills_HonoursCancellation(t *testing.T) {
	svc := catalog.New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := svc.Skills(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	if got := catalog.New().Delay(); got != catalog.DefaultDelay {
		t.Fatalf("delay = %s, want %s", got, catalog.DefaultDelay)
	}
}

func TestHandler_ServesList(t *testing.T) {
	svc := catalog.New(catalog.WithDelay(0), catalog.WithSkills("Go", "SQL"))

	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/skills", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var payload struct {
		Data []string `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff([]string{"Go", "SQL"}, payload.Data); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}

	rec = httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/skills", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
}
