// Package config loads deployment configuration for the web2pdf daemon and CLI.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/webpdf/go-web2pdf/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrInvalidBackend = errors.New("invalid usage backend")
)

// Usage backend names.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config holds all deployment configuration.
type Config struct {
	Listen  string        `yaml:"listen"`  // HTTP listen address (daemon only)
	Browser BrowserConfig `yaml:"browser"` // browser launch settings
	Queue   QueueConfig   `yaml:"queue"`   // render queue settings
	Usage   UsageConfig   `yaml:"usage"`   // usage accounting backend
}

// BrowserConfig selects the launch strategy. When ControlURL is set the
// daemon connects to a remote DevTools endpoint instead of spawning a local
// process.
type BrowserConfig struct {
	Bin        string `yaml:"bin"`        // path to a pre-installed Chrome/Chromium (empty = managed download)
	ControlURL string `yaml:"controlURL"` // remote DevTools websocket URL (overrides Bin)
	NoSandbox  bool   `yaml:"noSandbox"`  // required in most containers and CI
}

// QueueConfig bounds the pending-render backlog.
type QueueConfig struct {
	Capacity int `yaml:"capacity"` // 0 = library default
}

// UsageConfig selects and configures the usage store.
type UsageConfig struct {
	Backend string      `yaml:"backend"` // "memory", "redis", "mongo" (default memory)
	Redis   RedisConfig `yaml:"redis"`
	Mongo   MongoConfig `yaml:"mongo"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// Default returns a configuration suitable for local development: local
// browser, in-memory usage store, default queue bound.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		Usage: UsageConfig{
			Backend: BackendMemory,
			Mongo:   MongoConfig{Database: "web2pdf", Collection: "user_usage"},
		},
	}
}

// Load reads and validates a YAML config file. Missing file is an error (no
// silent fallback); call Default directly when no file is wanted.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	switch c.Usage.Backend {
	case "", BackendMemory:
	case BackendRedis:
		if c.Usage.Redis.Addr == "" {
			return fmt.Errorf("%w: redis backend requires usage.redis.addr", ErrInvalidBackend)
		}
	case BackendMongo:
		if c.Usage.Mongo.URI == "" {
			return fmt.Errorf("%w: mongo backend requires usage.mongo.uri", ErrInvalidBackend)
		}
	default:
		return fmt.Errorf("%w: %q (must be memory, redis, or mongo)", ErrInvalidBackend, c.Usage.Backend)
	}
	return nil
}
