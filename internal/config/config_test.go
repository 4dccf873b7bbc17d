package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formkit/internal/config"
)

const sampleConfig = `
server:
  addr: ":9090"
directory:
  endpoint: "https://jsonplaceholder.typicode.com/users"
  rate_per_second: 5
catalog:
  delay: 10ms
validation:
  banned_first_names: ["test", "noob", "admin"]
logging:
  level: debug
  format: console
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "formkit.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %s", cfg.Server.RequestTimeout)
	}
	if cfg.Directory.Timeout != 5*time.Second || cfg.Directory.RatePerSecond != 5 {
		t.Errorf("Directory = %+v", cfg.Directory)
	}
	if cfg.Catalog.Delay != 10*time.Millisecond {
		t.Errorf("Catalog.Delay = %s", cfg.Catalog.Delay)
	}
	if diff := cmp.Diff([]string{"test", "noob", "admin"}, cfg.Validation.BannedFirstNames); diff != "" {
		t.Errorf("BannedFirstNames mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"dummy", "anonymous"}, cfg.Validation.BannedNicknames); diff != "" {
		t.Errorf("BannedNicknames mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FORMKIT_SERVER_ADDR", ":7070")
	t.Setenv("FORMKIT_VALIDATION_BANNED_NICKNAMES", "root, guest")
	t.Setenv("FORMKIT_VALIDATION_BANNED_FIRST_NAMES", "")
	t.Setenv("FORMKIT_LOG_LEVEL", "warn")

	cfg, err := config.Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Addr != ":7070" || cfg.Logging.Level != "warn" {
		t.Errorf("overrides not applied: %+v %+v", cfg.Server, cfg.Logging)
	}
	if diff := cmp.Diff([]string{"root", "guest"}, cfg.Validation.BannedNicknames); diff != "" {
		t.Errorf("BannedNicknames mismatch (-want +got):\n%s", diff)
	}
	if len(cfg.Validation.BannedFirstNames) != 0 {
		t.Errorf("expected empty first-name list, got %v", cfg.Validation.BannedFirstNames)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("DIRECTORY_URL", "http://directory.local/users")
	cfg, err := config.Load(writeConfig(t, "directory:\n  endpoint: ${DIRECTORY_URL}\n"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Directory.Endpoint != "http://directory.local/users" {
		t.Errorf("Endpoint = %q", cfg.Directory.Endpoint)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":       "server: [",
		"negative rate":  "directory:\n  rate_per_second: -1\n",
		"unknown format": "logging:\n  format: xml\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := config.Load(writeConfig(t, content)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if cfg.Server.Addr != ":8080" || cfg.Catalog.Delay != time.Second || cfg.Logging.Format != "json" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestHolder_ReloadNotifies(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var got []string
	h.OnChange(func(cfg *config.Config) {
		got = cfg.Validation.BannedNicknames
	})

	if err := os.WriteFile(path, []byte("validation:\n  banned_nicknames: [root]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	if diff := cmp.Diff([]string{"root"}, got); diff != "" {
		t.Errorf("OnChange payload mismatch (-want +got):\n%s", diff)
	}
	if h.Get().Server.Addr != ":8080" {
		t.Errorf("expected reloaded defaults, got %q", h.Get().Server.Addr)
	}
}

func TestHolder_ReloadKeepsOldOnError(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	if err := os.WriteFile(path, []byte("logging:\n  format: xml\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := h.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if h.Get().Server.Addr != ":9090" {
		t.Errorf("old config not kept: %q", h.Get().Server.Addr)
	}
}

func TestHolder_WatchFile(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	changed := make(chan *config.Config, 4)
	h.OnChange(func(cfg *config.Config) { changed <- cfg })

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}
	if err := os.WriteFile(path, []byte("server:\n  addr: \":6060\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changed:
			if cfg.Server.Addr == ":6060" {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}

func TestStatic(t *testing.T) {
	h := config.Static(config.Default(), zerolog.Nop())
	defer h.Stop()
	if err := h.Reload(); err == nil {
		t.Fatal("expected reload error on static holder")
	}
	if err := h.WatchFile(); err == nil {
		t.Fatal("expected watch error on static holder")
	}
	h.Stop()
}
