// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for pokecache configuration.
	DefaultConfigDir = ".pokecache"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the default SQLite database file name.
	DefaultDatabaseFile = "pokecache.db"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "POKECACHE_"
)

// Profiles.
const (
	ProfileDevelopment = "development"
	ProfileStaging     = "staging"
	ProfileProduction  = "production"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// Config holds static configuration (read-only after load).
type Config struct {
	Profile  string         `yaml:"profile,omitempty" env:"PROFILE"`
	Server   ServerConfig   `yaml:"server,omitempty" envPrefix:"SERVER_"`
	Upstream UpstreamConfig `yaml:"upstream,omitempty" envPrefix:"UPSTREAM_"`
	Store    StoreConfig    `yaml:"store,omitempty" envPrefix:"STORE_"`
	Log      LogConfig      `yaml:"log,omitempty" envPrefix:"LOG_"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr,omitempty" env:"ADDR"`
	CORSOrigins     []string      `yaml:"cors_origins,omitempty" env:"CORS_ORIGINS" envSeparator:","`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty" env:"SHUTDOWN_TIMEOUT"`
}

// UpstreamConfig holds configuration for the PokeAPI client.
type UpstreamConfig struct {
	BaseURL   string        `yaml:"base_url,omitempty" env:"BASE_URL"`
	Timeout   time.Duration `yaml:"timeout,omitempty" env:"TIMEOUT"`
	UserAgent string        `yaml:"user_agent,omitempty" env:"USER_AGENT"`
	// CatalogLimit is the page size used to list every species name.
	CatalogLimit int `yaml:"catalog_limit,omitempty" env:"CATALOG_LIMIT"`
	// CatalogSize is the id range used for random and daily picks.
	CatalogSize int `yaml:"catalog_size,omitempty" env:"CATALOG_SIZE"`
}

// StoreConfig holds configuration for the record store.
type StoreConfig struct {
	// Driver is one of sqlite, postgres or none.
	Driver string `yaml:"driver,omitempty" env:"DRIVER"`
	// Path is the SQLite database file. Relative paths resolve against the
	// config directory.
	Path           string        `yaml:"path,omitempty" env:"PATH"`
	DSN            string        `yaml:"dsn,omitempty" env:"DSN"`
	MaxOpenConns   int           `yaml:"max_open_conns,omitempty" env:"MAX_OPEN_CONNS"`
	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty" env:"CONNECT_TIMEOUT"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `yaml:"level,omitempty" env:"LEVEL"`
}

// profileDefaults fills values a profile decides when the user didn't.
type profileDefaults struct {
	logLevel       string
	maxOpenConns   int
	connectTimeout time.Duration
	corsOrigins    []string
}

var profiles = map[string]profileDefaults{
	ProfileDevelopment: {
		logLevel:       "debug",
		maxOpenConns:   5,
		connectTimeout: 5 * time.Second,
		corsOrigins:    []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:3001"},
	},
	ProfileStaging: {
		logLevel:       "info",
		maxOpenConns:   8,
		connectTimeout: 10 * time.Second,
		corsOrigins:    []string{"https://staging.pokecache.dev"},
	},
	ProfileProduction: {
		logLevel:       "warn",
		maxOpenConns:   10,
		connectTimeout: 30 * time.Second,
		corsOrigins:    []string{"https://pokecache.dev"},
	},
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Profile: ProfileDevelopment,
		Server: ServerConfig{
			Addr:            ":5000",
			ShutdownTimeout: 10 * time.Second,
		},
		Upstream: UpstreamConfig{
			BaseURL:      "https://pokeapi.co/api/v2",
			Timeout:      10 * time.Second,
			UserAgent:    "pokecache",
			CatalogLimit: 1000,
			CatalogSize:  898,
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   DefaultDatabaseFile,
		},
	}
}

// Load loads configuration from the .pokecache directory in the given path.
// A missing config file is not an error; defaults and environment overrides
// still apply.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	// Start with defaults
	cfg := Default()

	data, err := os.ReadFile(configFile)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.finalize(basePath); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies POKECACHE_* environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

// finalize validates the config and fills profile-dependent defaults.
func (c *Config) finalize(basePath string) error {
	defaults, ok := profiles[c.Profile]
	if !ok {
		return fmt.Errorf("invalid profile %q, must be one of: %s, %s, %s",
			c.Profile, ProfileDevelopment, ProfileStaging, ProfileProduction)
	}

	if !slices.Contains([]string{DriverSQLite, DriverPostgres, DriverNone}, c.Store.Driver) {
		return fmt.Errorf("invalid store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == DriverPostgres && c.Store.DSN == "" {
		return fmt.Errorf("store dsn is required for the %s driver", DriverPostgres)
	}

	if c.Log.Level == "" {
		c.Log.Level = defaults.logLevel
	}
	if c.Store.MaxOpenConns == 0 {
		c.Store.MaxOpenConns = defaults.maxOpenConns
	}
	if c.Store.ConnectTimeout == 0 {
		c.Store.ConnectTimeout = defaults.connectTimeout
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = defaults.corsOrigins
	}
	if c.Store.Driver == DriverSQLite && c.Store.Path != ":memory:" && !filepath.IsAbs(c.Store.Path) {
		c.Store.Path = filepath.Join(ConfigDir(basePath), c.Store.Path)
	}
	return nil
}

// IsProduction reports whether error details must be redacted.
func (c *Config) IsProduction() bool {
	return c.Profile == ProfileProduction
}

// ConfigDir returns the path to the .pokecache config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}
