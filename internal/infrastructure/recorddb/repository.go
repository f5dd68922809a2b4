// Package recorddb provides a database/sql implementation of the RecordStore
// interface shared by the SQLite and Postgres drivers.
package recorddb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ersonp/pokecache/internal/domain/entities"
	"github.com/ersonp/pokecache/internal/domain/ports"
)

// Compile-time contract assertion.
var _ ports.RecordStore = (*Repository)(nil)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

const (
	defaultPingTimeout = 2 * time.Second

	selectColumns = `id, name, height, weight, base_experience, types, abilities, stats, image_url, sprites, last_updated`
)

// Dialect captures the differences between SQL backends.
type Dialect struct {
	Name string
	// Schema statements, executed in order by EnsureSchema.
	Schema []string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
}

// Repository implements ports.RecordStore on top of database/sql.
// Records are never deleted; seq preserves insertion order.
type Repository struct {
	db          *sql.DB
	dialect     Dialect
	logger      *zap.Logger
	pingTimeout time.Duration
}

// New wraps an open database handle.
func New(db *sql.DB, dialect Dialect, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		db:          db,
		dialect:     dialect,
		logger:      logger.With(zap.String("store", dialect.Name)),
		pingTimeout: defaultPingTimeout,
	}
}

// DB exposes the underlying sql.DB for tests and maintenance hooks.
func (r *Repository) DB() *sql.DB { return r.db }

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// EnsureSchema creates the schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range r.dialect.Schema {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// IsAvailable pings the database.
func (r *Repository) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, r.pingTimeout)
	defer cancel()
	return r.db.PingContext(ctx) == nil
}

// wrapErr marks err with ports.ErrStoreUnavailable when the database no
// longer answers a ping. Caller cancellation is passed through as is.
func (r *Repository) wrapErr(ctx context.Context, op string, err error) error {
	if ctx.Err() == nil && !r.IsAvailable(ctx) {
		return fmt.Errorf("%s: %w: %w", op, ports.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// FindByIDOrName finds a record by numeric id (all-digit identifiers) or by name.
func (r *Repository) FindByIDOrName(ctx context.Context, identifier string) (*entities.Pokemon, error) {
	identifier = entities.NormalizeName(identifier)
	if identifier == "" {
		return nil, nil
	}

	var row *sql.Row
	if isDigits(identifier) {
		id, err := strconv.Atoi(identifier)
		if err != nil {
			return nil, nil
		}
		row = r.db.QueryRowContext(ctx, r.rebind(`SELECT `+selectColumns+` FROM pokemon WHERE id = ?`), id)
	} else {
		row = r.db.QueryRowContext(ctx, r.rebind(`SELECT `+selectColumns+` FROM pokemon WHERE name = ?`), identifier)
	}

	p, err := scanPokemon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.wrapErr(ctx, "scanning pokemon", err)
	}
	return p, nil
}

// FindBySubstring returns up to limit records whose name contains text, ordered by name.
func (r *Repository) FindBySubstring(ctx context.Context, text string, limit int) ([]entities.Pokemon, error) {
	query := r.rebind(`
		SELECT ` + selectColumns + `
		FROM pokemon
		WHERE name LIKE ? ESCAPE '\'
		ORDER BY name ASC
		LIMIT ?
	`)
	rows, err := r.db.QueryContext(ctx, query, likePattern(text), limit)
	if err != nil {
		return nil, r.wrapErr(ctx, "querying pokemon", err)
	}
	defer rows.Close()

	result := make([]entities.Pokemon, 0, limit)
	for rows.Next() {
		p, err := scanPokemon(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pokemon: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// FindNamesBySubstring returns up to limit names containing text, ordered by name.
func (r *Repository) FindNamesBySubstring(ctx context.Context, text string, limit int) ([]string, error) {
	query := r.rebind(`
		SELECT name
		FROM pokemon
		WHERE name LIKE ? ESCAPE '\'
		ORDER BY name ASC
		LIMIT ?
	`)
	rows, err := r.db.QueryContext(ctx, query, likePattern(text), limit)
	if err != nil {
		return nil, r.wrapErr(ctx, "querying pokemon names", err)
	}
	defer rows.Close()

	names := make([]string, 0, limit)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning pokemon name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// FindAtOffset returns the n-th record (1-indexed) in insertion order.
func (r *Repository) FindAtOffset(ctx context.Context, n int) (*entities.Pokemon, error) {
	if n < 1 {
		return nil, nil
	}
	query := r.rebind(`SELECT ` + selectColumns + ` FROM pokemon ORDER BY seq ASC LIMIT 1 OFFSET ?`)

	p, err := scanPokemon(r.db.QueryRowContext(ctx, query, n-1))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.wrapErr(ctx, "scanning pokemon", err)
	}
	return p, nil
}

// UpsertIfAbsent inserts p unless a record with the same name exists, in
// which case only last_updated is refreshed. A conflicting numeric id with a
// different name is rejected by the unique constraint.
func (r *Repository) UpsertIfAbsent(ctx context.Context, p entities.Pokemon) error {
	p, err := p.Normalize()
	if err != nil {
		return fmt.Errorf("normalizing pokemon: %w", err)
	}
	now := timeNow().UTC()

	res, err := r.db.ExecContext(ctx, r.rebind(`UPDATE pokemon SET last_updated = ? WHERE name = ?`), now, p.Name)
	if err != nil {
		return r.wrapErr(ctx, "refreshing pokemon", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		r.logger.Debug("Pokemon already exists - updated timestamp", zap.String("pokemon", p.Name))
		return nil
	}

	types, abilities, stats, sprites, err := encodeLists(p)
	if err != nil {
		return err
	}

	// Two concurrent writers may both miss the UPDATE; the conflict clause
	// turns the loser into a stamp refresh.
	query := r.rebind(`
		INSERT INTO pokemon (id, name, height, weight, base_experience, types, abilities, stats, image_url, sprites, last_updated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET last_updated = excluded.last_updated
	`)
	_, err = r.db.ExecContext(ctx, query,
		nullableID(p.ID),
		p.Name,
		p.Height,
		p.Weight,
		nullableInt(p.BaseExperience),
		types,
		abilities,
		stats,
		p.ImageURL,
		sprites,
		now,
		now,
	)
	if err != nil {
		return r.wrapErr(ctx, "saving pokemon", err)
	}

	r.logger.Debug("Pokemon saved to database", zap.String("pokemon", p.Name), zap.Int("id", p.ID))
	return nil
}

// Count returns the number of stored records.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pokemon`).Scan(&count); err != nil {
		return 0, r.wrapErr(ctx, "counting pokemon", err)
	}
	return count, nil
}

// rebind rewrites ? placeholders into the dialect's form.
func (r *Repository) rebind(query string) string {
	if r.dialect.Placeholder == nil {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteString(r.dialect.Placeholder(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPokemon(s scanner) (*entities.Pokemon, error) {
	var (
		p                                  entities.Pokemon
		id, baseExperience                 sql.NullInt64
		types, abilities, stats, spritesJS string
	)
	if err := s.Scan(
		&id,
		&p.Name,
		&p.Height,
		&p.Weight,
		&baseExperience,
		&types,
		&abilities,
		&stats,
		&p.ImageURL,
		&spritesJS,
		&p.LastUpdated,
	); err != nil {
		return nil, err
	}

	if id.Valid {
		p.ID = int(id.Int64)
	}
	if baseExperience.Valid {
		v := int(baseExperience.Int64)
		p.BaseExperience = &v
	}
	if err := json.Unmarshal([]byte(types), &p.Types); err != nil {
		return nil, fmt.Errorf("decoding types: %w", err)
	}
	if err := json.Unmarshal([]byte(abilities), &p.Abilities); err != nil {
		return nil, fmt.Errorf("decoding abilities: %w", err)
	}
	if err := json.Unmarshal([]byte(stats), &p.Stats); err != nil {
		return nil, fmt.Errorf("decoding stats: %w", err)
	}
	if err := json.Unmarshal([]byte(spritesJS), &p.Sprites); err != nil {
		return nil, fmt.Errorf("decoding sprites: %w", err)
	}
	return &p, nil
}

func encodeLists(p entities.Pokemon) (types, abilities, stats, sprites string, err error) {
	fields := []struct {
		name string
		v    any
		out  *string
	}{
		{"types", p.Types, &types},
		{"abilities", p.Abilities, &abilities},
		{"stats", nonNilStats(p.Stats), &stats},
		{"sprites", p.Sprites, &sprites},
	}
	for _, f := range fields {
		data, err := json.Marshal(f.v)
		if err != nil {
			return "", "", "", "", fmt.Errorf("encoding %s: %w", f.name, err)
		}
		*f.out = string(data)
	}
	return types, abilities, stats, sprites, nil
}

func nonNilStats(stats []entities.Stat) []entities.Stat {
	if stats == nil {
		return []entities.Stat{}
	}
	return stats
}

func nullableID(id int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(id), Valid: id > 0}
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// likePattern builds a case-insensitive substring pattern with LIKE
// metacharacters escaped.
func likePattern(text string) string {
	text = strings.ToLower(text)
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(text) + "%"
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
