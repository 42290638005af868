// Package bootstrap wires a catalog.Store from configuration for the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"MiniCatalog/internal/catalog"
	"MiniCatalog/internal/config"
)

// OpenBlob returns the blob selected by cfg and a close func for its resources.
func OpenBlob(ctx context.Context, cfg config.Config) (catalog.Blob, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendFile:
		return catalog.NewFileBlob(cfg.Path), noop, nil

	case config.BackendMemory:
		return catalog.NewMemBlob(), noop, nil

	case config.BackendPostgres:
		db, err := catalog.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		blob := catalog.NewPostgresBlob(db, cfg.Path)
		if err := blob.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return blob, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown catalog backend %q", cfg.Backend)
	}
}

// OpenStore builds the store and, if cfg names a seed file, seeds it. reg may be nil.
func OpenStore(ctx context.Context, cfg config.Config, log *zap.Logger, reg prometheus.Registerer) (*catalog.Store, func() error, error) {
	if log == nil {
		log = zap.NewNop()
	}

	blob, closeFn, err := OpenBlob(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	var metrics *catalog.StoreMetrics
	if reg != nil {
		metrics = catalog.NewStoreMetrics(reg)
	}
	store := catalog.NewStore(blob, log, metrics)

	if cfg.SeedFile != "" {
		if err := SeedFromFile(ctx, store, cfg.SeedFile, log); err != nil {
			_ = closeFn()
			return nil, nil, err
		}
	}
	return store, closeFn, nil
}

func SeedFromFile(ctx context.Context, store *catalog.Store, path string, log *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	rep, err := catalog.Seed(ctx, store, f)
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}

	log.Info("catalog seeded",
		zap.String("file", path),
		zap.Ints("added", rep.Added),
		zap.Int("duplicates", rep.Duplicates),
		zap.Int("incomplete", rep.Incomplete),
	)
	return nil
}
