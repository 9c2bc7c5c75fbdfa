package order

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// validTransitions maps each status to the statuses it may move to.
// Delivered and cancelled are terminal.
var validTransitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
}

// CanTransition reports whether an order may move from one status to
// another.
func CanTransition(from, to string) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Status    string    `db:"status" json:"status"`
	Total     float64   `db:"total" json:"total"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Items []*Item `db:"-" json:"items,omitempty"`
}

// Item is a line snapshotted from the cart at checkout. The unit price is
// the server-side effective price at the moment the order was placed.
type Item struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OrderID   uuid.UUID `db:"order_id" json:"order_id"`
	ProductID uuid.UUID `db:"product_id" json:"product_id"`
	SKU       string    `db:"sku" json:"sku"`
	Name      string    `db:"name" json:"name"`
	UnitPrice float64   `db:"unit_price" json:"unit_price"`
	Qty       int       `db:"qty" json:"qty"`
}

// Subtotal is the item's contribution to the order total.
func (i *Item) Subtotal() float64 {
	return i.UnitPrice * float64(i.Qty)
}
