package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envKeys = []string{
	"CATALOG_CONFIG", "PORT", "CATALOG_BACKEND", "CATALOG_PATH", "DATABASE_URL",
	"CATALOG_SEED_FILE", "LOG_LEVEL", "METRICS_ENABLED", "METRICS_TOKEN",
	"RATE_LIMIT_PER_MIN", "RATE_LIMIT_BURST", "SHUTDOWN_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Backend != BackendFile || cfg.Path != "products.json" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Addr() != ":8080" {
		t.Fatalf("addr=%q", cfg.Addr())
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("shutdown=%v", cfg.ShutdownTimeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("CATALOG_PATH", "/data/catalog.json")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("RATE_LIMIT_PER_MIN", "120")
	t.Setenv("SHUTDOWN_TIMEOUT", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" || cfg.Path != "/data/catalog.json" || !cfg.MetricsEnabled || cfg.RateLimitPerMin != 120 {
		t.Fatalf("unexpected: %+v", cfg)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("shutdown=%v", cfg.ShutdownTimeout)
	}
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("RATE_LIMIT_BURST", "lots")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	t.Setenv("METRICS_ENABLED", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Defaults()
	if cfg.RateLimitBurst != def.RateLimitBurst || cfg.ShutdownTimeout != def.ShutdownTimeout || cfg.MetricsEnabled {
		t.Fatalf("unexpected: %+v", cfg)
	}
}

func TestLoadYAMLFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	body := "port: \"7070\"\npath: from-file.json\nlog_level: debug\nshutdown_timeout: 2s\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CATALOG_CONFIG", path)
	t.Setenv("PORT", "6060")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "6060" {
		t.Fatalf("env should win over file, port=%q", cfg.Port)
	}
	if cfg.Path != "from-file.json" || cfg.LogLevel != "debug" || cfg.ShutdownTimeout != 2*time.Second {
		t.Fatalf("file values not applied: %+v", cfg)
	}
}

func TestLoadYAMLUnknownKey(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("prot: 1\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CATALOG_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"memory", func(c *Config) { c.Backend = BackendMemory }, false},
		{"postgres without url", func(c *Config) { c.Backend = BackendPostgres }, true},
		{"postgres with url", func(c *Config) {
			c.Backend = BackendPostgres
			c.DatabaseURL = "postgres://localhost/catalog"
		}, false},
		{"unknown backend", func(c *Config) { c.Backend = "s3" }, true},
		{"file without path", func(c *Config) { c.Path = "" }, true},
		{"negative rate", func(c *Config) { c.RateLimitPerMin = -1 }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("err=%v, wantErr=%v", err, tc.wantErr)
			}
		})
	}
}
