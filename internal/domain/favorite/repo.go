package favorite

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Add is idempotent: adding an existing favorite is a no-op.
	Add(ctx context.Context, f *Favorite) error
	Remove(ctx context.Context, userID uuid.UUID, itemType string, itemID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, itemType string) ([]*Favorite, error)
	Exists(ctx context.Context, userID uuid.UUID, itemType string, itemID uuid.UUID) (bool, error)
}
