// Package product is the product directory: the products table, its 1:1
// inventory rows and the service the bot flows call.
package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalogue entry. UnitPrice is the purchase cost.
type Product struct {
	ID           string          `db:"id"`
	Name         string          `db:"name"`
	Description  *string         `db:"description"`
	SKU          string          `db:"sku"`
	UnitPrice    decimal.Decimal `db:"unit_price"`
	SellingPrice decimal.Decimal `db:"selling_price"`
	Unit         string          `db:"unit"`
	Category     *string         `db:"category"`
	ImageURL     *string         `db:"image_url"`
	IsActive     bool            `db:"is_active"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// Inventory is the stock record of a product. This service only reads it.
type Inventory struct {
	Quantity      decimal.Decimal
	MinStockLevel decimal.NullDecimal
	Location      *string
}

// ProductWithInventory joins a product with its inventory row, which may be absent.
type ProductWithInventory struct {
	Product
	Inventory *Inventory
}

// Quantity returns the stock on hand, 0 when no inventory row exists.
func (p ProductWithInventory) Quantity() decimal.Decimal {
	if p.Inventory == nil {
		return decimal.Zero
	}
	return p.Inventory.Quantity
}

// CreateInput carries the fields collected for a new product.
type CreateInput struct {
	Name         string
	Description  *string
	SKU          string
	UnitPrice    decimal.Decimal
	SellingPrice decimal.Decimal
	Unit         string
	Category     *string
	ImageURL     *string
}
