package flow

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/m3rciful/stockbot/core/telegram/callbacks"
)

// Callback domains.
const (
	DomainProducts = "products"
	DomainProduct  = "product"
	DomainStock    = "stock"
)

// ErrUnknownAction is returned for payloads outside the closed action set.
var ErrUnknownAction = errors.New("flow: unknown action")

// Action is one of the typed inline button actions below.
type Action interface {
	// Payload encodes the action as callback data.
	Payload() string
	action()
}

// ProductsPage shows a list page; also used for refresh.
type ProductsPage struct{ Page int }

// ProductsClose deletes the list message.
type ProductsClose struct{}

// ProductView opens or refreshes the detail view.
type ProductView struct{ SKU string }

// ProductEdit requests editing a product.
type ProductEdit struct{ SKU string }

// ProductClose deletes the detail message.
type ProductClose struct{}

// StockAdd requests adding stock after creation.
type StockAdd struct{ SKU string }

// StockUpdate requests a stock change from the detail view.
type StockUpdate struct{ SKU string }

func (a ProductsPage) Payload() string {
	return callbacks.Encode(DomainProducts, "page", strconv.Itoa(a.Page))
}

func (ProductsClose) Payload() string { return callbacks.Encode(DomainProducts, "close") }

func (a ProductView) Payload() string { return callbacks.Encode(DomainProduct, "view", a.SKU) }

func (a ProductEdit) Payload() string { return callbacks.Encode(DomainProduct, "edit", a.SKU) }

func (ProductClose) Payload() string { return callbacks.Encode(DomainProduct, "close") }

func (a StockAdd) Payload() string { return callbacks.Encode(DomainStock, "add", a.SKU) }

func (a StockUpdate) Payload() string { return callbacks.Encode(DomainStock, "update", a.SKU) }

func (ProductsPage) action()  {}
func (ProductsClose) action() {}
func (ProductView) action()   {}
func (ProductEdit) action()   {}
func (ProductClose) action()  {}
func (StockAdd) action()      {}
func (StockUpdate) action()   {}

// ActionKeys lists the "<domain>:<action>" routing keys of every action.
var ActionKeys = []string{
	"products:page", "products:close",
	"product:view", "product:edit", "product:close",
	"stock:add", "stock:update",
}

// ParseAction decodes callback data into a typed action.
func ParseAction(data string) (Action, error) {
	p, err := callbacks.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownAction, err)
	}

	withSKU := func(build func(string) Action) (Action, error) {
		if p.Arg == "" {
			return nil, fmt.Errorf("%w: %s needs a sku", ErrUnknownAction, p.Key())
		}
		return build(p.Arg), nil
	}
	noArg := func(a Action) (Action, error) {
		if p.Arg != "" {
			return nil, fmt.Errorf("%w: %s takes no argument", ErrUnknownAction, p.Key())
		}
		return a, nil
	}

	switch p.Key() {
	case "products:page":
		n, err := strconv.Atoi(p.Arg)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: bad page %q", ErrUnknownAction, p.Arg)
		}
		return ProductsPage{Page: n}, nil
	case "products:close":
		return noArg(ProductsClose{})
	case "product:close":
		return noArg(ProductClose{})
	case "product:view":
		return withSKU(func(s string) Action { return ProductView{SKU: s} })
	case "product:edit":
		return withSKU(func(s string) Action { return ProductEdit{SKU: s} })
	case "stock:add":
		return withSKU(func(s string) Action { return StockAdd{SKU: s} })
	case "stock:update":
		return withSKU(func(s string) Action { return StockUpdate{SKU: s} })
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownAction, p.Key())
}
