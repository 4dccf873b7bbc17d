// Package config loads the formkit service configuration from YAML with
// FORMKIT_* environment overrides, and hot-reloads it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Directory  DirectoryConfig  `yaml:"directory"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Validation ValidationConfig `yaml:"validation"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DirectoryConfig points the uniqueness check at a directory. An empty
// endpoint uses the local store directly.
type DirectoryConfig struct {
	Endpoint      string        `yaml:"endpoint"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Timeout       time.Duration `yaml:"timeout"`
}

type CatalogConfig struct {
	Delay time.Duration `yaml:"delay"`
}

type ValidationConfig struct {
	BannedFirstNames []string `yaml:"banned_first_names"`
	BannedNicknames  []string `yaml:"banned_nicknames"`
}

// StorageConfig selects the directory store. An empty path keeps users in
// memory.
type StorageConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	setDefaults(cfg)
	return cfg
}

// Load reads path, expands environment references, applies FORMKIT_*
// overrides and defaults, then validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse is Load for in-memory YAML.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FORMKIT_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("FORMKIT_SERVER_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.RequestTimeout = d
		}
	}

	if v := os.Getenv("FORMKIT_DIRECTORY_ENDPOINT"); v != "" {
		cfg.Directory.Endpoint = v
	}
	if v := os.Getenv("FORMKIT_DIRECTORY_RATE_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Directory.RatePerSecond = f
		}
	}
	if v := os.Getenv("FORMKIT_DIRECTORY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Directory.Timeout = d
		}
	}

	if v := os.Getenv("FORMKIT_CATALOG_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Catalog.Delay = d
		}
	}

	if v, ok := os.LookupEnv("FORMKIT_VALIDATION_BANNED_FIRST_NAMES"); ok {
		cfg.Validation.BannedFirstNames = splitList(v)
	}
	if v, ok := os.LookupEnv("FORMKIT_VALIDATION_BANNED_NICKNAMES"); ok {
		cfg.Validation.BannedNicknames = splitList(v)
	}

	if v := os.Getenv("FORMKIT_STORAGE_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("FORMKIT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FORMKIT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// splitList parses a comma separated env value. An empty value yields an
// empty, non-nil list so it can clear a ban list.
func splitList(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Directory.Timeout == 0 {
		cfg.Directory.Timeout = 5 * time.Second
	}

	if cfg.Catalog.Delay == 0 {
		cfg.Catalog.Delay = time.Second
	}

	if cfg.Validation.BannedFirstNames == nil {
		cfg.Validation.BannedFirstNames = []string{"test", "noob"}
	}
	if cfg.Validation.BannedNicknames == nil {
		cfg.Validation.BannedNicknames = []string{"dummy", "anonymous"}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	if cfg.Directory.RatePerSecond < 0 {
		return fmt.Errorf("directory.rate_per_second must not be negative, got %v", cfg.Directory.RatePerSecond)
	}
	if cfg.Catalog.Delay < 0 {
		return fmt.Errorf("catalog.delay must not be negative, got %s", cfg.Catalog.Delay)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}
	return nil
}
