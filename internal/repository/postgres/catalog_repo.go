package postgres

import (
	"context"
	"errors"
	"fmt"
	"shopcart-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Querier is the subset of *pgxpool.Pool the catalog reads through.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	// price is read as text so it lands in decimal.Decimal without a float round-trip
	listProductsSQL   = `SELECT id, title, price::text, COALESCE(image, '') FROM products ORDER BY id`
	getProductByIDSQL = `SELECT id, title, price::text, COALESCE(image, '') FROM products WHERE id = $1`
)

type catalogRepository struct {
	db Querier
}

func NewCatalogRepository(db Querier) domain.ProductRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) GetAll(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *catalogRepository) GetByID(ctx context.Context, id int) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, getProductByIDSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		id    int64
		p     domain.Product
		price string
	)
	if err := row.Scan(&id, &p.Title, &price, &p.Image); err != nil {
		return domain.Product{}, fmt.Errorf("failed to scan product: %w", err)
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: product %d price %q: %v", domain.ErrInvalidCatalog, id, price, err)
	}
	p.ID = int(id)
	p.Price = d
	return p, nil
}
