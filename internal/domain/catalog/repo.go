package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrInsufficientStock is returned by DecrementStock when the product does
// not have enough stock to satisfy the requested quantity.
var ErrInsufficientStock = errors.New("insufficient stock")

type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Product, int, error)
	Search(ctx context.Context, query, category string, limit, offset int) ([]*Product, int, error)
	// DecrementStock atomically subtracts qty from the product's stock,
	// failing with ErrInsufficientStock when stock would go negative.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error
}
