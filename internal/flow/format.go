package flow

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/stockbot/core/telegram/format"
	"github.com/m3rciful/stockbot/internal/product"
)

// DefaultCurrency prefixes prices when none is configured.
const DefaultCurrency = "₹"

// Formatter renders products as MarkdownV2.
type Formatter struct {
	Currency string
}

func (f Formatter) currency() string {
	if f.Currency == "" {
		return DefaultCurrency
	}
	return f.Currency
}

// Price renders an amount with two decimals and the currency symbol. The
// result is plain text; escape it before embedding in Markdown.
func (f Formatter) Price(d decimal.Decimal) string {
	return f.currency() + d.StringFixed(2)
}

// Details renders the product card shared by the creation confirmation and
// the detail view.
func (f Formatter) Details(p product.ProductWithInventory) string {
	unit := format.Escape(p.Unit)
	minStock := "Not set"
	location := "Not specified"
	if inv := p.Inventory; inv != nil {
		if inv.MinStockLevel.Valid {
			minStock = format.Escape(inv.MinStockLevel.Decimal.String()) + " " + unit
		}
		if inv.Location != nil && strings.TrimSpace(*inv.Location) != "" {
			location = format.Escape(*inv.Location)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📦 *%s*\n", format.Escape(p.Name))
	fmt.Fprintf(&b, "SKU: `%s`\n", p.SKU)
	fmt.Fprintf(&b, "Description: %s\n", format.Escape(format.OrDefault(p.Description, "N/A")))
	fmt.Fprintf(&b, "Category: %s\n", format.Escape(format.OrDefault(p.Category, "N/A")))
	fmt.Fprintf(&b, "Unit: %s\n\n", unit)
	b.WriteString("💰 *Pricing*\n")
	fmt.Fprintf(&b, "Cost: %s\n", format.Escape(f.Price(p.UnitPrice)))
	fmt.Fprintf(&b, "Selling Price: %s\n\n", format.Escape(f.Price(p.SellingPrice)))
	b.WriteString("📊 *Stock Information*\n")
	fmt.Fprintf(&b, "Current Stock: %s %s\n", format.Escape(p.Quantity().String()), unit)
	fmt.Fprintf(&b, "Min Stock Level: %s\n", minStock)
	fmt.Fprintf(&b, "Location: %s", location)
	if p.ImageURL != nil && *p.ImageURL != "" {
		b.WriteString("\n\n🖼 _Image available_")
	}
	return b.String()
}
