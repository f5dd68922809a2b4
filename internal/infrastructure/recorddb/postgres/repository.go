// Package postgres provides a Postgres implementation of the RecordStore interface.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"go.uber.org/zap"

	"github.com/ersonp/pokecache/internal/infrastructure/config"
	"github.com/ersonp/pokecache/internal/infrastructure/recorddb"
)

const (
	driverName            = "pgx"
	defaultConnectTimeout = 10 * time.Second
)

// sqlOpen can be swapped in tests.
var sqlOpen = sql.Open

// Dialect is the Postgres schema and placeholder style.
var Dialect = recorddb.Dialect{
	Name: "postgres",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS pokemon (
			seq BIGSERIAL PRIMARY KEY,
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
			last_updated TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pokemon_last_updated ON pokemon(last_updated)`,
	},
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
}

// NewRepository opens a Postgres-backed record store and verifies the
// connection within cfg.ConnectTimeout.
func NewRepository(cfg config.StoreConfig, logger *zap.Logger) (*recorddb.Repository, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is required")
	}

	db, err := sqlOpen(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return recorddb.New(db, Dialect, logger), nil
}
