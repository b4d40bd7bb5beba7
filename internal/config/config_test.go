package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: ":9000"
  postgresDsn: "host=db"
matching:
  similarityThreshold: 0.9
  maxRetries: 5
lock:
  backend: memory
  ttl: 3s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Listen != ":9000" || cfg.Server.PostgresDsn != "host=db" {
		t.Fatalf("unexpected server section %+v", cfg.Server)
	}
	if cfg.Matching.SimilarityThreshold != 0.9 || cfg.Matching.MaxRetries != 5 {
		t.Fatalf("unexpected matching section %+v", cfg.Matching)
	}
	if cfg.Lock.TTL != 3*time.Second {
		t.Fatalf("unexpected lock ttl %v", cfg.Lock.TTL)
	}
	if cfg.Cache.ConfigTTL != 5*time.Minute {
		t.Fatalf("default cache ttl lost: %v", cfg.Cache.ConfigTTL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CATALOG_POSTGRES_DSN", "host=env")
	t.Setenv("CATALOG_SIMILARITY_THRESHOLD", "0.7")
	t.Setenv("CATALOG_REDIS_PASSWORD", "hunter2")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.PostgresDsn != "host=env" {
		t.Fatalf("dsn not overridden: %s", cfg.Server.PostgresDsn)
	}
	if cfg.Server.RedisPassword != "hunter2" {
		t.Fatalf("redis password not read from env: %q", cfg.Server.RedisPassword)
	}
	if cfg.Matching.SimilarityThreshold != 0.7 {
		t.Fatalf("threshold not overridden: %v", cfg.Matching.SimilarityThreshold)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold zero", func(c *Config) { c.Matching.SimilarityThreshold = 0 }},
		{"threshold above one", func(c *Config) { c.Matching.SimilarityThreshold = 1.5 }},
		{"negative retries", func(c *Config) { c.Matching.MaxRetries = -1 }},
		{"redis lock without addr", func(c *Config) { c.Lock.Backend = "redis" }},
		{"unknown lock backend", func(c *Config) { c.Lock.Backend = "etcd" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
