package ports

import (
	"context"

	"github.com/ersonp/pokecache/internal/domain/entities"
)

// UpstreamClient fetches canonical Pokemon from the external source of truth.
// Fetch methods return ErrNotFound (possibly wrapped) when the Pokemon does
// not exist upstream.
type UpstreamClient interface {
	// FetchByID fetches a Pokemon by numeric id.
	FetchByID(ctx context.Context, id int) (entities.Pokemon, error)

	// FetchByName fetches a Pokemon by exact name.
	FetchByName(ctx context.Context, name string) (entities.Pokemon, error)

	// ListAllNames lists every known Pokemon name, for fuzzy matching.
	ListAllNames(ctx context.Context) ([]string, error)
}
