package main

import (
	"context"
	"fmt"

	"shopcart-backend/config"
	"shopcart-backend/internal/domain"
	"shopcart-backend/internal/repository/memory"
	"shopcart-backend/internal/repository/postgres"
	"shopcart-backend/pkg/logger"
	"shopcart-backend/pkg/storage"
)

const (
	catalogSourcePostgres = "postgres"
	catalogSourceObject   = "r2"
	catalogSourceFile     = "file"
	catalogSourceEmbedded = "embedded"
)

// openCatalog picks the first configured catalog source. The returned close
// func releases whatever the source holds open.
func openCatalog(ctx context.Context, cfg *config.Config) (domain.ProductRepository, string, func(), error) {
	noop := func() {}

	switch {
	case cfg.DBUrl != "":
		pool, err := postgres.NewPgxPool(ctx, cfg)
		if err != nil {
			return nil, "", noop, fmt.Errorf("failed to connect to catalog database: %w", err)
		}
		logger.Info().Msg("Successfully connected to PostgreSQL via pgx")
		return postgres.NewCatalogRepository(pool), catalogSourcePostgres, pool.Close, nil

	case cfg.CatalogObjectKey != "":
		r2Storage, err := storage.NewR2Storage(
			ctx,
			cfg.R2AccountID,
			cfg.R2AccessKeyID,
			cfg.R2AccessKeySecret,
			cfg.R2BucketName,
			cfg.R2PublicURL,
			cfg.R2DownloadTimeout,
		)
		if err != nil {
			return nil, "", noop, fmt.Errorf("failed to initialize R2 storage: %w", err)
		}
		products, err := memory.LoadCatalogObject(ctx, r2Storage, cfg.CatalogObjectKey)
		if err != nil {
			return nil, "", noop, err
		}
		repo, err := memory.NewCatalogRepository(products)
		return repo, catalogSourceObject, noop, err

	case cfg.CatalogFile != "":
		products, err := memory.LoadCatalogFile(cfg.CatalogFile)
		if err != nil {
			return nil, "", noop, err
		}
		repo, err := memory.NewCatalogRepository(products)
		return repo, catalogSourceFile, noop, err
	}

	repo, err := memory.NewDefaultCatalogRepository()
	return repo, catalogSourceEmbedded, noop, err
}
