package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Product is a pharmacy or parapharmacy catalog entry. Price and stock on
// the product row are the live values; cart lines snapshot them at add time.
type Product struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	SKU             string     `db:"sku" json:"sku"`
	OwnerID         uuid.UUID  `db:"owner_id" json:"owner_id"`
	Name            string     `db:"name" json:"name"`
	Description     *string    `db:"description" json:"description,omitempty"`
	Category        string     `db:"category" json:"category"`
	Price           float64    `db:"price" json:"price"`
	DiscountedPrice *float64   `db:"discounted_price" json:"discounted_price,omitempty"`
	ImageURL        *string    `db:"image_url" json:"image_url,omitempty"`
	Stock           int        `db:"stock" json:"stock"`
	Active          bool       `db:"active" json:"active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// EffectivePrice returns the discounted price when one is set, otherwise the
// list price.
func (p *Product) EffectivePrice() float64 {
	if p.DiscountedPrice != nil && *p.DiscountedPrice > 0 && *p.DiscountedPrice < p.Price {
		return *p.DiscountedPrice
	}
	return p.Price
}

// Availability statuses.
const (
	StatusInStock    = "IN_STOCK"
	StatusLowStock   = "LOW_STOCK"
	StatusOutOfStock = "OUT_OF_STOCK"
)

// lowStockThreshold is the quantity below which a product is reported as
// LOW_STOCK rather than IN_STOCK.
const lowStockThreshold = 5

// Availability describes the purchasable state of a product.
type Availability struct {
	Status string `json:"status"`
	Qty    int    `json:"qty"`
}

// AvailabilityFor converts a stock quantity into an availability tier.
func AvailabilityFor(qty int) Availability {
	status := StatusOutOfStock
	switch {
	case qty >= lowStockThreshold:
		status = StatusInStock
	case qty > 0:
		status = StatusLowStock
	}
	return Availability{Status: status, Qty: qty}
}
