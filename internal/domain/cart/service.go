package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/caremarket/caremarket/internal/domain/catalog"
)

// mirror is the subset of the key-value store the cart writes through to.
type mirror interface {
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
}

// mirrorTTL bounds how long an abandoned cart copy lives in the store.
const mirrorTTL = 30 * 24 * time.Hour

type Service struct {
	lines    Repository
	products catalog.ProductRepository
	kv       mirror
	log      zerolog.Logger
}

func NewService(lines Repository, products catalog.ProductRepository, kv mirror, log zerolog.Logger) *Service {
	return &Service{lines: lines, products: products, kv: kv, log: log}
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	lines, err := s.lines.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewCart(userID, lines), nil
}

// Add puts qty units of a product in the user's cart. An existing line is
// incremented; a new line snapshots the product's name, prices, image, sku
// and stock as they are right now. The mutation is rejected, leaving the
// cart untouched, when the product is out of stock or the resulting
// quantity would exceed the line's stock ceiling.
func (s *Service) Add(ctx context.Context, userID, productID uuid.UUID, qty int) (*Cart, error) {
	if qty < 1 {
		return nil, fmt.Errorf("qty must be at least 1")
	}

	line, err := s.lines.Get(ctx, userID, productID)
	switch {
	case err == nil:
		if line.Qty+qty > line.Stock {
			return nil, ErrStockExceeded
		}
		line.Qty += qty
	case err == ErrLineNotFound:
		p, perr := s.products.GetByID(ctx, productID)
		if perr != nil {
			return nil, fmt.Errorf("product not found: %w", perr)
		}
		if !p.Active || p.Stock == 0 {
			return nil, ErrOutOfStock
		}
		if qty > p.Stock {
			return nil, ErrStockExceeded
		}
		line = &Line{
			UserID:          userID,
			ProductID:       p.ID,
			SKU:             p.SKU,
			Name:            p.Name,
			Price:           p.Price,
			DiscountedPrice: p.DiscountedPrice,
			ImageURL:        p.ImageURL,
			Stock:           p.Stock,
			Qty:             qty,
			AddedAt:         time.Now().UTC(),
		}
	default:
		return nil, err
	}

	if err := s.lines.Upsert(ctx, line); err != nil {
		return nil, err
	}
	return s.finish(ctx, userID)
}

// UpdateQuantity sets the line's quantity. Zero or negative quantities
// remove the line. A quantity above the stock ceiling is rejected and the
// prior quantity kept.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*Cart, error) {
	if qty <= 0 {
		return s.Remove(ctx, userID, productID)
	}

	line, err := s.lines.Get(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if qty > line.Stock {
		return nil, ErrStockExceeded
	}

	line.Qty = qty
	if err := s.lines.Upsert(ctx, line); err != nil {
		return nil, err
	}
	return s.finish(ctx, userID)
}

func (s *Service) Remove(ctx context.Context, userID, productID uuid.UUID) (*Cart, error) {
	if err := s.lines.Delete(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.finish(ctx, userID)
}

// Clear empties the cart. Called by the user and after checkout.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	if err := s.lines.Clear(ctx, userID); err != nil {
		return nil, err
	}
	return s.finish(ctx, userID)
}

// finish reloads the cart and mirrors the whole of it to the key-value
// store. Mirror failures are logged and swallowed; the database copy is
// authoritative.
func (s *Service) finish(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.kv != nil {
		if err := s.kv.SetJSON(ctx, MirrorKey(userID), c, mirrorTTL); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("cart mirror write failed")
		}
	}
	return c, nil
}

// MirrorKey is the key-value store key holding a user's serialized cart.
func MirrorKey(userID uuid.UUID) string {
	return "cart:" + userID.String()
}
