package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	products ProductRepository
}

func NewService(products ProductRepository) *Service {
	return &Service{products: products}
}

func (s *Service) CreateProduct(ctx context.Context, p *Product) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.SKU == "" {
		return fmt.Errorf("sku is required")
	}
	if p.OwnerID == uuid.Nil {
		return fmt.Errorf("owner_id is required")
	}
	if p.Price <= 0 {
		return fmt.Errorf("price must be positive")
	}
	if p.DiscountedPrice != nil && (*p.DiscountedPrice <= 0 || *p.DiscountedPrice >= p.Price) {
		return fmt.Errorf("discounted_price must be positive and below price")
	}
	if p.Stock < 0 {
		return fmt.Errorf("stock must not be negative")
	}
	if p.Category == "" {
		p.Category = "general"
	}
	p.Active = true
	return s.products.Create(ctx, p)
}

func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *Service) UpdateProduct(ctx context.Context, p *Product) error {
	if p.Price <= 0 {
		return fmt.Errorf("price must be positive")
	}
	if p.Stock < 0 {
		return fmt.Errorf("stock must not be negative")
	}
	return s.products.Update(ctx, p)
}

func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.products.Delete(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Product, int, error) {
	return s.products.ListByOwner(ctx, ownerID, limit, offset)
}

func (s *Service) Search(ctx context.Context, query, category string, limit, offset int) ([]*Product, int, error) {
	return s.products.Search(ctx, query, category, limit, offset)
}

// Availability reports the purchasable state of a product from its live
// stock figure.
func (s *Service) Availability(ctx context.Context, id uuid.UUID) (Availability, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return Availability{}, err
	}
	if !p.Active {
		return Availability{Status: StatusOutOfStock, Qty: 0}, nil
	}
	return AvailabilityFor(p.Stock), nil
}
