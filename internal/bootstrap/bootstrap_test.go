package bootstrap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formkit/internal/bootstrap"
	"github.com/goliatone/go-formkit/internal/config"
	"github.com/goliatone/go-formkit/pkg/directory"
)

func TestOpenServices_MemoryStore(t *testing.T) {
	cfg := config.Default()
	svc, err := bootstrap.OpenServices(cfg, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("OpenServices: %v", err)
	}
	defer svc.Close()

	if _, ok := svc.Store.(*directory.MemoryStore); !ok {
		t.Fatalf("store = %T, want *directory.MemoryStore", svc.Store)
	}
	if svc.Lookup != directory.Lookup(svc.Store) {
		t.Errorf("lookup should fall back to the store")
	}
	deps := svc.ProfileDeps(cfg)
	if deps.Skills == nil || len(deps.BannedNicknames) != 2 {
		t.Errorf("unexpected deps %+v", deps)
	}
}

func TestOpenServices_SQLiteAndRemote(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.SQLitePath = ":memory:"
	cfg.Directory.Endpoint = "http://directory.invalid/users"
	cfg.Directory.RatePerSecond = 2

	svc, err := bootstrap.OpenServices(cfg, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("OpenServices: %v", err)
	}
	defer svc.Close()

	if _, ok := svc.Store.(*directory.SQLiteStore); !ok {
		t.Fatalf("store = %T, want *directory.SQLiteStore", svc.Store)
	}
	client, ok := svc.Lookup.(*directory.Client)
	if !ok || client.Endpoint() != cfg.Directory.Endpoint {
		t.Fatalf("lookup = %T", svc.Lookup)
	}
}

func TestApp_ServesAndShutsDown(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.Delay = 0
	app, err := bootstrap.New(config.Static(cfg, zerolog.Nop()), zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rec := httptest.NewRecorder()
	app.HTTPServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}

	if err := app.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	app, err := bootstrap.New(config.Static(cfg, zerolog.Nop()), zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
