package favorite

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Favoritable item types.
const (
	TypeProduct = "product"
	TypeDoctor  = "doctor"
)

type Favorite struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	ItemType  string    `db:"item_type" json:"item_type"`
	ItemID    uuid.UUID `db:"item_id" json:"item_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ValidType checks the item type.
func ValidType(t string) error {
	if t != TypeProduct && t != TypeDoctor {
		return fmt.Errorf("item_type must be %s or %s", TypeProduct, TypeDoctor)
	}
	return nil
}
