// Package config loads the catalog's runtime settings: built-in defaults, then an
// optional YAML file named by CATALOG_CONFIG, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Port            string        `yaml:"port"`
	Backend         string        `yaml:"backend"`
	Path            string        `yaml:"path"`
	DatabaseURL     string        `yaml:"database_url"`
	SeedFile        string        `yaml:"seed_file"`
	LogLevel        string        `yaml:"log_level"`
	MetricsEnabled  bool          `yaml:"metrics_enabled"`
	MetricsToken    string        `yaml:"metrics_token"`
	RateLimitPerMin int           `yaml:"rate_limit_per_min"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func Defaults() Config {
	return Config{
		Port:            "8080",
		Backend:         BackendFile,
		Path:            "products.json",
		LogLevel:        "info",
		RateLimitBurst:  20,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load returns the merged configuration. It fails only on an unreadable or invalid
// config file, or on a combination Validate rejects.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CATALOG_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.mergeEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() {
	c.Port = getenv("PORT", c.Port)
	c.Backend = getenv("CATALOG_BACKEND", c.Backend)
	c.Path = getenv("CATALOG_PATH", c.Path)
	c.DatabaseURL = getenv("DATABASE_URL", c.DatabaseURL)
	c.SeedFile = getenv("CATALOG_SEED_FILE", c.SeedFile)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.MetricsEnabled = boolenv("METRICS_ENABLED", c.MetricsEnabled)
	c.MetricsToken = getenv("METRICS_TOKEN", c.MetricsToken)
	c.RateLimitPerMin = atoienv("RATE_LIMIT_PER_MIN", c.RateLimitPerMin)
	c.RateLimitBurst = atoienv("RATE_LIMIT_BURST", c.RateLimitBurst)
	c.ShutdownTimeout = durenv("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.Path == "" {
			return errors.New("file backend needs a path (CATALOG_PATH)")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("postgres backend needs DATABASE_URL")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown catalog backend %q", c.Backend)
	}

	if c.RateLimitPerMin < 0 {
		return errors.New("rate limit must not be negative")
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + c.Port
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolenv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// durenv accepts Go durations ("15s") or a bare number of seconds.
func durenv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if sec, err := strconv.Atoi(v); err == nil {
		return time.Duration(sec) * time.Second
	}
	return def
}
