package cart

import (
	"time"

	"github.com/google/uuid"
)

// Line is one product in a user's cart. All product fields are snapshots
// taken when the line was added; later catalog edits never propagate here.
// Stock is the snapshot ceiling: Qty may never exceed it.
type Line struct {
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	ProductID       uuid.UUID `db:"product_id" json:"product_id"`
	SKU             string    `db:"sku" json:"sku"`
	Name            string    `db:"name" json:"name"`
	Price           float64   `db:"price" json:"price"`
	DiscountedPrice *float64  `db:"discounted_price" json:"discounted_price,omitempty"`
	ImageURL        *string   `db:"image_url" json:"image_url,omitempty"`
	Stock           int       `db:"stock" json:"stock"`
	Qty             int       `db:"qty" json:"qty"`
	AddedAt         time.Time `db:"added_at" json:"added_at"`
}

// UnitPrice returns the discounted price when one was captured, otherwise
// the list price.
func (l *Line) UnitPrice() float64 {
	if l.DiscountedPrice != nil && *l.DiscountedPrice > 0 && *l.DiscountedPrice < l.Price {
		return *l.DiscountedPrice
	}
	return l.Price
}

// Subtotal is the line's contribution to the cart total.
func (l *Line) Subtotal() float64 {
	return l.UnitPrice() * float64(l.Qty)
}

// Cart is the full cart for one user, with derived totals.
type Cart struct {
	UserID uuid.UUID `json:"user_id"`
	Lines  []*Line   `json:"lines"`
	Total  float64   `json:"total"`
	Count  int       `json:"count"`
}

// NewCart assembles a cart from its lines and computes the derived fields.
func NewCart(userID uuid.UUID, lines []*Line) *Cart {
	c := &Cart{UserID: userID, Lines: lines}
	if c.Lines == nil {
		c.Lines = []*Line{}
	}
	for _, l := range c.Lines {
		c.Total += l.Subtotal()
		c.Count += l.Qty
	}
	return c
}

// Contains reports whether the cart has a line for the given product.
func (c *Cart) Contains(productID uuid.UUID) bool {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return true
		}
	}
	return false
}
