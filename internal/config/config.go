package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/tarunvipparti/DFS/pkg/cache"
	"github.com/tarunvipparti/DFS/pkg/database"
	"github.com/tarunvipparti/DFS/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvDFSEnv             = "DFS_ENV"
	EnvDFSShutdownTimeout = "DFS_SHUTDOWN_TIMEOUT"
	EnvDFSVersion         = "DFS_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "DFS_DB_HOST",
	Port:            "DFS_DB_PORT",
	Name:            "DFS_DB_NAME",
	User:            "DFS_DB_USER",
	Password:        "DFS_DB_PASSWORD",
	SSLMode:         "DFS_DB_SSL_MODE",
	MaxOpenConns:    "DFS_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "DFS_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "DFS_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "DFS_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "DFS_STORAGE_CONTAINER_NAME",
	ConnectionString: "DFS_STORAGE_CONNECTION_STRING",
	MaxListSize:      "DFS_STORAGE_MAX_LIST_SIZE",
}

var cacheEnv = &cache.Env{
	Addr:     "DFS_CACHE_ADDR",
	Password: "DFS_CACHE_PASSWORD",
	DB:       "DFS_CACHE_DB",
	TTL:      "DFS_CACHE_TTL",
}

// Config is the root configuration for the sentinel service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	Cache           cache.Config    `toml:"cache"`
	API             APIConfig       `toml:"api"`
	Analyzer        AnalyzerConfig  `toml:"analyzer"`
	Monitor         MonitorConfig   `toml:"monitor"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the DFS_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvDFSEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Cache.Merge(&overlay.Cache)
	c.API.Merge(&overlay.API)
	c.Analyzer.Merge(&overlay.Analyzer)
	c.Monitor.Merge(&overlay.Monitor)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Cache.Finalize(cacheEnv); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Analyzer.Finalize(); err != nil {
		return fmt.Errorf("analyzer: %w", err)
	}
	if err := c.Monitor.Finalize(); err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvDFSShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvDFSVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvDFSEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
