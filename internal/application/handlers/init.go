// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/pokecache/internal/domain/ports"
	"github.com/ersonp/pokecache/internal/infrastructure/config"
)

// StoreOpener opens the record store described by cfg. A nil store means
// the configuration disables it.
type StoreOpener func(cfg *config.Config) (ports.RecordStore, error)

// InitHandler handles workspace initialization.
type InitHandler struct {
	openStore StoreOpener
}

// NewInitHandler creates a new init handler.
func NewInitHandler(openStore StoreOpener) *InitHandler {
	return &InitHandler{
		openStore: openStore,
	}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath  string
	StoreDriver string
	// StoreRecords is the record count found in an existing store.
	StoreRecords int
}

// Handle writes the default config and prepares the record store schema.
func (h *InitHandler) Handle(ctx context.Context, basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("pokecache already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	result := &InitResult{
		ConfigPath:  config.ConfigFilePath(basePath),
		StoreDriver: cfg.Store.Driver,
	}
	if h.openStore == nil {
		return result, nil
	}

	store, err := h.openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if store == nil {
		return result, nil
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}
	result.StoreRecords = count

	return result, nil
}
