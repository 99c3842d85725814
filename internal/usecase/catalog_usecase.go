package usecase

import (
	"context"
	"fmt"
	"shopcart-backend/internal/domain"
	"shopcart-backend/pkg/cache"
	"time"
)

const catalogAllKey = "catalog:products:all"

type CatalogUsecase struct {
	repo  domain.ProductRepository
	cache cache.CacheService
	ttl   time.Duration
}

func NewCatalogUsecase(repo domain.ProductRepository, cache cache.CacheService, ttl time.Duration) *CatalogUsecase {
	return &CatalogUsecase{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
	}
}

func (uc *CatalogUsecase) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if val, found := uc.cache.Get(catalogAllKey); found {
		return copyProducts(val.([]domain.Product)), nil
	}

	products, err := uc.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	uc.cache.Set(catalogAllKey, copyProducts(products), uc.ttl)
	return products, nil
}

// GetProduct returns domain.ErrProductNotFound for unknown ids. Misses are not cached.
func (uc *CatalogUsecase) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	key := fmt.Sprintf("catalog:product:%d", id)
	if val, found := uc.cache.Get(key); found {
		p := val.(domain.Product)
		return &p, nil
	}

	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	uc.cache.Set(key, *p, uc.ttl)
	return p, nil
}

// InvalidateCache drops every cached catalog entry.
func (uc *CatalogUsecase) InvalidateCache() {
	uc.cache.Flush()
}

func copyProducts(in []domain.Product) []domain.Product {
	out := make([]domain.Product, len(in))
	copy(out, in)
	return out
}
