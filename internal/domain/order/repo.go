package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("order not found")

type Repository interface {
	// Create persists the order together with its items.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Order, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}
