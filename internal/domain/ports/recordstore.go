package ports

import (
	"context"

	"github.com/ersonp/pokecache/internal/domain/entities"
)

// RecordStore is the durable cache of previously resolved Pokemon.
// Lookups return (nil, nil) on a clean miss.
type RecordStore interface {
	// EnsureSchema creates the storage schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error

	// IsAvailable reports whether the store can currently serve requests.
	IsAvailable(ctx context.Context) bool

	// FindByIDOrName finds a record by numeric id (all-digit identifiers)
	// or by exact lowercased name.
	FindByIDOrName(ctx context.Context, identifier string) (*entities.Pokemon, error)

	// FindBySubstring returns up to limit records whose name contains text,
	// case-insensitively, ordered by name.
	FindBySubstring(ctx context.Context, text string, limit int) ([]entities.Pokemon, error)

	// FindNamesBySubstring is FindBySubstring projected to names only.
	FindNamesBySubstring(ctx context.Context, text string, limit int) ([]string, error)

	// FindAtOffset returns the n-th record (1-indexed) in insertion order.
	FindAtOffset(ctx context.Context, n int) (*entities.Pokemon, error)

	// UpsertIfAbsent inserts the record unless one with the same name exists,
	// in which case only its LastUpdated stamp is refreshed.
	UpsertIfAbsent(ctx context.Context, p entities.Pokemon) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}
