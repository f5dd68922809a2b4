package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# pokecache configuration

# development, staging or production (or set POKECACHE_PROFILE)
profile: development

server:
  addr: ":5000"
  shutdown_timeout: 10s
  # cors_origins: ["http://localhost:3000"]

upstream:
  base_url: https://pokeapi.co/api/v2
  timeout: 10s
  catalog_limit: 1000
  catalog_size: 898

store:
  # sqlite, postgres or none
  driver: sqlite
  path: pokecache.db
  # dsn: postgres://localhost/pokecache?sslmode=disable (or set POKECACHE_STORE_DSN)

# log:
#   level: debug
`

// WriteDefault creates the .pokecache directory and writes a default config file.
func WriteDefault(basePath string) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)
	configFile := filepath.Join(configDir, DefaultConfigFile)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists: %s", configFile)
	}

	if err := os.WriteFile(configFile, []byte(DefaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Exists checks if a pokecache config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
