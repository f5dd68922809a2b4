// Package sqlite provides a SQLite implementation of the RecordStore interface.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/pokecache/internal/infrastructure/config"
	"github.com/ersonp/pokecache/internal/infrastructure/recorddb"
)

const memoryPath = ":memory:"

// Dialect is the SQLite schema and placeholder style.
var Dialect = recorddb.Dialect{
	Name: "sqlite",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS pokemon (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id INTEGER UNIQUE,
			name TEXT NOT NULL UNIQUE,
			height INTEGER NOT NULL DEFAULT 0,
			weight INTEGER NOT NULL DEFAULT 0,
			base_experience INTEGER,
			types TEXT NOT NULL DEFAULT '[]',
			abilities TEXT NOT NULL DEFAULT '[]',
			stats TEXT NOT NULL DEFAULT '[]',
			image_url TEXT NOT NULL DEFAULT '',
			sprites TEXT NOT NULL DEFAULT '{}',
			last_updated DATETIME NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pokemon_last_updated ON pokemon(last_updated)`,
	},
}

// Repository is a SQLite-backed record store.
type Repository struct {
	*recorddb.Repository
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.StoreConfig, logger *zap.Logger) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if cfg.Path == memoryPath {
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		Repository: recorddb.New(db, Dialect, logger),
		path:       cfg.Path,
	}, nil
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}
