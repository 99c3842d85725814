package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. The cart never changes it.
type Product struct {
	ID    int             `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

// --- Interfaces ---

// ProductRepository is the read-only catalog the cart pulls products from.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]Product, error)
	// GetByID returns ErrProductNotFound when the id is not in the catalog.
	GetByID(ctx context.Context, id int) (*Product, error)
}
