package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if cfg.Listen != ":8080" {
		t.Errorf("Listen = %q, want :8080", cfg.Listen)
	}
	if cfg.Usage.Backend != BackendMemory {
		t.Errorf("Backend = %q, want memory", cfg.Usage.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_Valid(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
listen: ":9090"
browser:
  noSandbox: true
queue:
  capacity: 64
usage:
  backend: redis
  redis:
    addr: "localhost:6379"
    db: 2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":9090" {
		t.Errorf("Listen = %q, want :9090", cfg.Listen)
	}
	if !cfg.Browser.NoSandbox {
		t.Error("NoSandbox should be true")
	}
	if cfg.Queue.Capacity != 64 {
		t.Errorf("Capacity = %d, want 64", cfg.Queue.Capacity)
	}
	if cfg.Usage.Backend != BackendRedis {
		t.Errorf("Backend = %q, want redis", cfg.Usage.Backend)
	}
	if cfg.Usage.Redis.Addr != "localhost:6379" || cfg.Usage.Redis.DB != 2 {
		t.Errorf("Redis = %+v", cfg.Usage.Redis)
	}
	// Untouched defaults survive a partial file.
	if cfg.Usage.Mongo.Database != "web2pdf" {
		t.Errorf("Mongo.Database = %q, want default web2pdf", cfg.Usage.Mongo.Database)
	}
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "listen: \":9090\"\ntypoed_field: true\n")
	if _, err := Load(path); !errors.Is(err, ErrConfigParse) {
		t.Errorf("error = %v, want ErrConfigParse", err)
	}
}

func TestLoad_Malformed(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "listen: [unclosed\n")
	if _, err := Load(path); !errors.Is(err, ErrConfigParse) {
		t.Errorf("error = %v, want ErrConfigParse", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"empty backend ok", func(c *Config) { c.Usage.Backend = "" }, false},
		{"memory ok", func(c *Config) { c.Usage.Backend = BackendMemory }, false},
		{"redis without addr", func(c *Config) { c.Usage.Backend = BackendRedis }, true},
		{"redis with addr", func(c *Config) {
			c.Usage.Backend = BackendRedis
			c.Usage.Redis.Addr = "localhost:6379"
		}, false},
		{"mongo without uri", func(c *Config) { c.Usage.Backend = BackendMongo }, true},
		{"mongo with uri", func(c *Config) {
			c.Usage.Backend = BackendMongo
			c.Usage.Mongo.URI = "mongodb://localhost:27017"
		}, false},
		{"unknown backend", func(c *Config) { c.Usage.Backend = "etcd" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidBackend) {
				t.Errorf("error = %v, want ErrInvalidBackend", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
