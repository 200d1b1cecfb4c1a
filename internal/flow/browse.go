package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/stockbot/core/logger"
	"github.com/m3rciful/stockbot/core/telegram/format"
	"github.com/m3rciful/stockbot/core/telegram/keyboard"
	"github.com/m3rciful/stockbot/internal/product"
)

const browseComponent = "flow.browse"

// PageSize is the number of products per list page.
const PageSize = 5

// Browser messages.
const (
	MsgNoProducts   = "No products found."
	MsgListFailed   = "❌ Failed to fetch products. Please try again."
	MsgDetailFailed = "❌ Failed to fetch product details. Please try again."
	MsgSearchFailed = "❌ Search failed. Please try again."
	MsgSearchUsage  = "Usage: /search <name or SKU>"
	MsgDetailUsage  = "Usage: /product <SKU>"
	msgNotFound     = "❌ Product with SKU \"%s\" not found."
	msgNoMatches    = "No products match \"%s\"."
)

// Stock levels shown in the list.
type StockStatus int

const (
	InStock StockStatus = iota
	LowStock
	OutOfStock
)

func (s StockStatus) String() string {
	switch s {
	case OutOfStock:
		return "🔴 Out of Stock"
	case LowStock:
		return "🟡 Low Stock"
	default:
		return "🟢 In Stock"
	}
}

// StatusOf classifies stock. A product without inventory counts as zero.
func StatusOf(p product.ProductWithInventory) StockStatus {
	qty := p.Quantity()
	if !qty.IsPositive() {
		return OutOfStock
	}
	if inv := p.Inventory; inv != nil && inv.MinStockLevel.Valid && qty.LessThanOrEqual(inv.MinStockLevel.Decimal) {
		return LowStock
	}
	return InStock
}

// TotalPages is ceil(total/size), zero for an empty directory.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Catalog is the read side of the product directory.
type Catalog interface {
	GetBySKU(ctx context.Context, sku string) (*product.ProductWithInventory, error)
	List(ctx context.Context, page, size int) ([]product.ProductWithInventory, int, error)
	Search(ctx context.Context, query string) ([]product.ProductWithInventory, error)
}

// Browser renders list pages, product details and search results.
type Browser struct {
	cat      Catalog
	fmt      Formatter
	pageSize int
}

// NewBrowser builds a browser; a non-positive pageSize falls back to PageSize.
func NewBrowser(cat Catalog, f Formatter, pageSize int) *Browser {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	return &Browser{cat: cat, fmt: f, pageSize: pageSize}
}

// List renders page. edit selects in-place rendering for navigation callbacks.
func (b *Browser) List(ctx context.Context, page int, edit bool) Reply {
	if page < 1 {
		page = 1
	}
	items, total, err := b.cat.List(ctx, page, b.pageSize)
	if err != nil {
		logger.Error(ctx, browseComponent, "list.fail",
			slog.Int("page", page),
			slog.String("err", err.Error()),
		)
		return send(MsgListFailed)
	}
	if len(items) == 0 {
		return Reply{Kind: kindFor(edit), Text: MsgNoProducts}
	}
	pages := TotalPages(total, b.pageSize)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 *Product List* \\(Page %d/%d\\)\n\n", page, pages)
	for i, p := range items {
		b.writeItem(&sb, i+1, p)
	}

	var rows [][]keyboard.Button
	var nav []keyboard.Button
	if page > 1 {
		nav = append(nav, button("⬅️ Previous", ProductsPage{Page: page - 1}))
	}
	if page < pages {
		nav = append(nav, button("Next ➡️", ProductsPage{Page: page + 1}))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, itemButtons(items)...)
	rows = append(rows, []keyboard.Button{
		button("🔄 Refresh", ProductsPage{Page: page}),
		button("❌ Close", ProductsClose{}),
	})

	logger.Debug(ctx, browseComponent, "list.render",
		slog.Int("page", page),
		slog.Int("pages", pages),
		slog.Int("items", len(items)),
	)
	return Reply{
		Kind:     kindFor(edit),
		Text:     strings.TrimRight(sb.String(), "\n"),
		Markdown: true,
		Buttons:  rows,
	}
}

func (b *Browser) writeItem(sb *strings.Builder, n int, p product.ProductWithInventory) {
	unit := format.Escape(p.Unit)
	fmt.Fprintf(sb, "%d\\. *%s*\n", n, format.Escape(p.Name))
	fmt.Fprintf(sb, "SKU: `%s`\n", p.SKU)
	fmt.Fprintf(sb, "Price: %s/%s\n", format.Escape(b.fmt.Price(p.SellingPrice)), unit)
	fmt.Fprintf(sb, "Stock: %s %s \\- %s\n\n", format.Escape(p.Quantity().String()), unit, StatusOf(p))
}

// itemButtons opens each listed product, numbered like the text. Numbers
// restart at 1 on every page.
func itemButtons(items []product.ProductWithInventory) [][]keyboard.Button {
	buttons := make([]keyboard.Button, 0, len(items))
	for i, p := range items {
		buttons = append(buttons, button(strconv.Itoa(i+1), ProductView{SKU: p.SKU}))
	}
	return keyboard.Chunk(buttons, PageSize)
}

// Detail renders one product. edit is set for refresh callbacks.
func (b *Browser) Detail(ctx context.Context, sku string, edit bool) Reply {
	sku = strings.TrimSpace(sku)
	if !product.ValidSKU(sku) {
		return Reply{Kind: kindFor(edit), Text: fmt.Sprintf(msgNotFound, sku)}
	}
	p, err := b.cat.GetBySKU(ctx, sku)
	if err != nil {
		logger.Error(ctx, browseComponent, "detail.fail",
			slog.String("sku", sku),
			slog.String("err", err.Error()),
		)
		return send(MsgDetailFailed)
	}
	if p == nil {
		return Reply{Kind: kindFor(edit), Text: fmt.Sprintf(msgNotFound, sku)}
	}
	return Reply{
		Kind:     kindFor(edit),
		Text:     b.fmt.Details(*p),
		Markdown: true,
		Buttons: [][]keyboard.Button{
			{
				button("📦 Update Stock", StockUpdate{SKU: p.SKU}),
				button("✏️ Edit", ProductEdit{SKU: p.SKU}),
			},
			{
				button("🔄 Refresh", ProductView{SKU: p.SKU}),
				button("❌ Close", ProductClose{}),
			},
		},
	}
}

// Search renders up to product.SearchLimit matches as a numbered list.
func (b *Browser) Search(ctx context.Context, query string) Reply {
	query = strings.TrimSpace(query)
	if query == "" {
		return send(MsgSearchUsage)
	}
	items, err := b.SearchItems(ctx, query)
	if err != nil {
		return send(MsgSearchFailed)
	}
	if len(items) == 0 {
		return send(fmt.Sprintf(msgNoMatches, query))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔎 *Search results* for \"%s\"\n\n", format.Escape(query))
	for i, p := range items {
		b.writeItem(&sb, i+1, p)
	}
	rows := itemButtons(items)
	rows = append(rows, []keyboard.Button{button("❌ Close", ProductsClose{})})
	return Reply{
		Kind:     Send,
		Text:     strings.TrimRight(sb.String(), "\n"),
		Markdown: true,
		Buttons:  rows,
	}
}

// SearchItems runs the directory search and logs failures.
func (b *Browser) SearchItems(ctx context.Context, query string) ([]product.ProductWithInventory, error) {
	items, err := b.cat.Search(ctx, query)
	if err != nil {
		logger.Error(ctx, browseComponent, "search.fail",
			slog.String("query", logger.SanitizeLimit(query, 64)),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	return items, nil
}

// Summary is a one-line description used for inline query results.
func (b *Browser) Summary(p product.ProductWithInventory) string {
	return fmt.Sprintf("SKU %s · %s · %s %s in stock",
		p.SKU, b.fmt.Price(p.SellingPrice), p.Quantity().String(), p.Unit)
}

// Close deletes the message carrying the pressed button.
func Close() Reply { return Reply{Kind: Delete} }
