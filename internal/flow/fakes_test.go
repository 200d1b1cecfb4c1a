package flow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/stockbot/internal/product"
)

type fakeDir struct {
	items     []product.ProductWithInventory
	getErr    error
	getCalls  int
	listErr   error
	listCalls int
	searchErr error
	createErr error
	created   []product.CreateInput
}

func (f *fakeDir) GetBySKU(_ context.Context, sku string) (*product.ProductWithInventory, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	for i := range f.items {
		if f.items[i].SKU == sku {
			p := f.items[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeDir) Create(_ context.Context, in product.CreateInput) (*product.Product, error) {
	f.created = append(f.created, in)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &product.Product{
		ID:           "id-1",
		Name:         in.Name,
		Description:  in.Description,
		SKU:          in.SKU,
		UnitPrice:    in.UnitPrice,
		SellingPrice: in.SellingPrice,
		Unit:         in.Unit,
		Category:     in.Category,
		ImageURL:     in.ImageURL,
		IsActive:     true,
	}, nil
}

func (f *fakeDir) List(_ context.Context, page, size int) ([]product.ProductWithInventory, int, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	sorted := append([]product.ProductWithInventory(nil), f.items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	start := (page - 1) * size
	if start >= len(sorted) {
		return nil, len(sorted), nil
	}
	end := start + size
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[start:end], len(sorted), nil
}

func (f *fakeDir) Search(_ context.Context, q string) ([]product.ProductWithInventory, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []product.ProductWithInventory
	for _, p := range f.items {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(q)) || strings.Contains(p.SKU, q) {
			out = append(out, p)
		}
	}
	if len(out) > product.SearchLimit {
		out = out[:product.SearchLimit]
	}
	return out, nil
}

type fakeImages struct {
	url    string
	err    error
	gotIDs []string
}

func (f *fakeImages) ResolveImage(_ context.Context, fileID string) (string, error) {
	f.gotIDs = append(f.gotIDs, fileID)
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func stocked(name, sku, qty string, minLevel string) product.ProductWithInventory {
	inv := &product.Inventory{Quantity: decimal.RequireFromString(qty)}
	if minLevel != "" {
		inv.MinStockLevel = decimal.NewNullDecimal(decimal.RequireFromString(minLevel))
	}
	return product.ProductWithInventory{
		Product: product.Product{
			Name:         name,
			SKU:          sku,
			UnitPrice:    decimal.RequireFromString("10"),
			SellingPrice: decimal.RequireFromString("12.5"),
			Unit:         "pcs",
		},
		Inventory: inv,
	}
}

func catalog(n int) []product.ProductWithInventory {
	items := make([]product.ProductWithInventory, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, stocked(fmt.Sprintf("Item %02d", i), fmt.Sprintf("SKU-%02d", i), "5", ""))
	}
	return items
}
