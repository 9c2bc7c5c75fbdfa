package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Business-rule rejections. The cart is never modified when one of these
// is returned.
var (
	// ErrOutOfStock rejects adding a product whose stock is zero.
	ErrOutOfStock = errors.New("product is out of stock")
	// ErrStockExceeded rejects a quantity above the line's stock ceiling.
	ErrStockExceeded = errors.New("requested quantity exceeds available stock")
)

// ErrLineNotFound is returned by Get when the user has no line for the
// product.
var ErrLineNotFound = errors.New("cart line not found")

type Repository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Line, error)
	Get(ctx context.Context, userID, productID uuid.UUID) (*Line, error)
	// Upsert inserts the line or, when one already exists for the same
	// user and product, replaces its quantity. Snapshot fields are only
	// written on insert.
	Upsert(ctx context.Context, l *Line) error
	Delete(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}
