package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Repository is the storage contract of the product directory.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetBySKU(ctx context.Context, sku string) (*ProductWithInventory, error)
	List(ctx context.Context, limit, offset int) ([]ProductWithInventory, int, error)
	Search(ctx context.Context, query string, limit int) ([]ProductWithInventory, error)
	Ping(ctx context.Context) error
}

// PGRepository implements Repository on Postgres through sqlx.
type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const uniqueViolation = "23505"

const selectWithInventory = `
	SELECT p.id, p.name, p.description, p.sku, p.unit_price, p.selling_price,
	       p.unit, p.category, p.image_url, p.is_active, p.created_at, p.updated_at,
	       i.product_id IS NOT NULL AS has_inventory,
	       i.quantity AS inv_quantity,
	       i.min_stock_level AS inv_min_stock_level,
	       i.location AS inv_location
	FROM products p
	LEFT JOIN inventory i ON i.product_id = p.id`

// row is the flat shape of selectWithInventory.
type row struct {
	Product
	HasInventory  bool                `db:"has_inventory"`
	Quantity      decimal.NullDecimal `db:"inv_quantity"`
	MinStockLevel decimal.NullDecimal `db:"inv_min_stock_level"`
	Location      *string             `db:"inv_location"`
}

func (r row) toModel() ProductWithInventory {
	out := ProductWithInventory{Product: r.Product}
	if r.HasInventory {
		out.Inventory = &Inventory{
			Quantity:      r.Quantity.Decimal,
			MinStockLevel: r.MinStockLevel,
			Location:      r.Location,
		}
	}
	return out
}

func toModels(rows []row) []ProductWithInventory {
	out := make([]ProductWithInventory, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out
}

func (r *PGRepository) Create(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (
			id, name, description, sku, unit_price, selling_price,
			unit, category, image_url, is_active, created_at, updated_at
		)
		VALUES (
			:id, :name, :description, :sku, :unit_price, :selling_price,
			:unit, :category, :image_url, :is_active, :created_at, :updated_at
		)`
	if _, err := r.DB.NamedExecContext(ctx, query, p); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateSKU, p.SKU)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *PGRepository) GetBySKU(ctx context.Context, sku string) (*ProductWithInventory, error) {
	var rec row
	err := r.DB.GetContext(ctx, &rec, selectWithInventory+` WHERE p.sku = $1 LIMIT 1`, sku)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product %s: %w", sku, err)
	}
	out := rec.toModel()
	return &out, nil
}

func (r *PGRepository) List(ctx context.Context, limit, offset int) ([]ProductWithInventory, int, error) {
	var total int
	if err := r.DB.GetContext(ctx, &total, `SELECT count(*) FROM products`); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	var rows []row
	query := selectWithInventory + ` ORDER BY p.name ASC, p.sku ASC LIMIT $1 OFFSET $2`
	if err := r.DB.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return toModels(rows), total, nil
}

func (r *PGRepository) Search(ctx context.Context, query string, limit int) ([]ProductWithInventory, error) {
	var rows []row
	q := selectWithInventory + ` WHERE p.name ILIKE $1 OR p.sku ILIKE $1 ORDER BY p.name ASC LIMIT $2`
	if err := r.DB.SelectContext(ctx, &rows, q, likePattern(query), limit); err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return toModels(rows), nil
}

func (r *PGRepository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern matches query as a literal substring.
func likePattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}
