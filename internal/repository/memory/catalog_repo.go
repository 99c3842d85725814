package memory

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"shopcart-backend/internal/domain"

	"github.com/goccy/go-json"
)

//go:embed catalog.json
var defaultCatalog []byte

// ObjectGetter is the slice of the object store the catalog loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PublicURL(key string) string
}

type catalogRepository struct {
	products []domain.Product
	byID     map[int]int
}

// NewCatalogRepository serves products in the given order. Non-positive or
// duplicate ids and negative prices are rejected with domain.ErrInvalidCatalog.
func NewCatalogRepository(products []domain.Product) (domain.ProductRepository, error) {
	repo := &catalogRepository{
		products: make([]domain.Product, 0, len(products)),
		byID:     make(map[int]int, len(products)),
	}
	for _, p := range products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("%w: product id must be positive, got %d", domain.ErrInvalidCatalog, p.ID)
		}
		if _, dup := repo.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product id %d", domain.ErrInvalidCatalog, p.ID)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("%w: product %d has negative price %s", domain.ErrInvalidCatalog, p.ID, p.Price)
		}
		repo.byID[p.ID] = len(repo.products)
		repo.products = append(repo.products, p)
	}
	return repo, nil
}

// NewDefaultCatalogRepository serves the built-in demo catalog.
func NewDefaultCatalogRepository() (domain.ProductRepository, error) {
	products, err := DecodeCatalog(defaultCatalog)
	if err != nil {
		return nil, err
	}
	return NewCatalogRepository(products)
}

// DecodeCatalog parses a JSON array of products. Prices may be numbers or strings.
func DecodeCatalog(data []byte) ([]domain.Product, error) {
	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
	}
	return products, nil
}

func LoadCatalogFile(path string) ([]domain.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return DecodeCatalog(data)
}

// LoadCatalogObject fetches the catalog document from the object store.
// Relative image keys are turned into public URLs.
func LoadCatalogObject(ctx context.Context, store ObjectGetter, key string) ([]domain.Product, error) {
	data, err := store.GetObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog object: %w", err)
	}
	products, err := DecodeCatalog(data)
	if err != nil {
		return nil, err
	}
	for i := range products {
		img := products[i].Image
		if img != "" && !strings.HasPrefix(img, "http://") && !strings.HasPrefix(img, "https://") {
			products[i].Image = store.PublicURL(img)
		}
	}
	return products, nil
}

func (r *catalogRepository) GetAll(ctx context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, len(r.products))
	copy(out, r.products)
	return out, nil
}

func (r *catalogRepository) GetByID(ctx context.Context, id int) (*domain.Product, error) {
	idx, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	p := r.products[idx]
	return &p, nil
}
