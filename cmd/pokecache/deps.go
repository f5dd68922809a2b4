package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ersonp/pokecache/internal/application/handlers"
	"github.com/ersonp/pokecache/internal/domain/ports"
	"github.com/ersonp/pokecache/internal/domain/services"
	"github.com/ersonp/pokecache/internal/infrastructure/config"
	"github.com/ersonp/pokecache/internal/infrastructure/metrics"
	"github.com/ersonp/pokecache/internal/infrastructure/recorddb/postgres"
	"github.com/ersonp/pokecache/internal/infrastructure/recorddb/sqlite"
	"github.com/ersonp/pokecache/internal/infrastructure/upstream/pokeapi"
)

// Deps holds high-level dependencies for commands.
type Deps struct {
	Config         *config.Config
	Service        *services.ResolutionService
	PokemonHandler *handlers.PokemonHandler
	Metrics        *metrics.Recorder
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It flushes pending write-backs and closes the store afterwards.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	recorder := metrics.NewRecorder()

	store := openStoreOrDegrade(ctx, cfg, logger)
	if store != nil {
		defer store.Close()
	}

	upstream := pokeapi.NewClient(cfg.Upstream,
		pokeapi.WithObserver(recorder),
		pokeapi.WithLogger(logger.Named("pokeapi")),
	)

	svc := services.NewResolutionService(store, upstream, logger.Named("resolution"),
		services.WithRecorder(recorder),
		services.WithCatalogSize(cfg.Upstream.CatalogSize),
	)
	defer svc.Flush()

	deps := &Deps{
		Config:  cfg,
		Service: svc,
		PokemonHandler: handlers.NewPokemonHandler(svc, logger.Named("http"),
			handlers.WithRedaction(cfg.IsProduction()),
			handlers.WithCORSOrigins(cfg.Server.CORSOrigins),
			handlers.WithMetrics(recorder, recorder.Handler()),
		),
		Metrics: recorder,
	}

	return fn(deps)
}

// openStoreOrDegrade opens the configured store. Failures are logged and
// yield a nil store so the caller runs upstream-only.
func openStoreOrDegrade(ctx context.Context, cfg *config.Config, log *zap.Logger) ports.RecordStore {
	store, err := openStore(cfg, log)
	if err != nil {
		log.Warn("Record store unavailable, running upstream-only",
			zap.String("driver", cfg.Store.Driver), zap.Error(err))
		return nil
	}
	if store == nil {
		log.Info("Record store disabled, running upstream-only")
		return nil
	}

	if err := store.EnsureSchema(ctx); err != nil {
		log.Warn("Record store schema setup failed, running upstream-only",
			zap.String("driver", cfg.Store.Driver), zap.Error(err))
		store.Close()
		return nil
	}
	return store
}

// openStore opens the record store for the configured driver. The none
// driver returns a nil store.
func openStore(cfg *config.Config, log *zap.Logger) (ports.RecordStore, error) {
	storeLogger := log.Named("store")

	switch cfg.Store.Driver {
	case config.DriverNone:
		return nil, nil
	case config.DriverPostgres:
		repo, err := postgres.NewRepository(cfg.Store, storeLogger)
		if err != nil {
			return nil, fmt.Errorf("creating postgres repository: %w", err)
		}
		return repo, nil
	case config.DriverSQLite, "":
		repo, err := sqlite.NewRepository(cfg.Store, storeLogger)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite repository: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
