package product

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNotFound is returned by the repository when no product matches.
	ErrNotFound = errors.New("product: not found")
	// ErrDuplicateSKU maps the unique constraint on products.sku.
	ErrDuplicateSKU = errors.New("product: sku already exists")
	// ErrInvalidInput wraps every CreateInput validation failure.
	ErrInvalidInput = errors.New("product: invalid input")
)

// MaxSKULength keeps "stock:update:<sku>" within Telegram's 64 byte callback limit.
const MaxSKULength = 50

var skuRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidSKU reports whether s is a well-formed SKU.
func ValidSKU(s string) bool {
	return len(s) <= MaxSKULength && skuRe.MatchString(s)
}

// Validate checks the invariants the database also enforces, so a bad
// input fails before a round trip.
func (in CreateInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case !ValidSKU(in.SKU):
		return fmt.Errorf("%w: sku %q must match [A-Za-z0-9_-]+ (max %d)", ErrInvalidInput, in.SKU, MaxSKULength)
	case in.UnitPrice.IsNegative():
		return fmt.Errorf("%w: unit price must be >= 0", ErrInvalidInput)
	case in.SellingPrice.IsNegative():
		return fmt.Errorf("%w: selling price must be >= 0", ErrInvalidInput)
	case in.SellingPrice.LessThan(in.UnitPrice):
		return fmt.Errorf("%w: selling price below unit price", ErrInvalidInput)
	case strings.TrimSpace(in.Unit) == "":
		return fmt.Errorf("%w: unit is required", ErrInvalidInput)
	}
	return nil
}
