package product

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var joinColumns = []string{
	"id", "name", "description", "sku", "unit_price", "selling_price",
	"unit", "category", "image_url", "is_active", "created_at", "updated_at",
	"has_inventory", "inv_quantity", "inv_min_stock_level", "inv_location",
}

func newMockRepo(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestCreateMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO products")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	err := repo.Create(context.Background(), &Product{ID: "1", SKU: "DUP-1"})
	if !errors.Is(err, ErrDuplicateSKU) {
		t.Fatalf("err = %v, want ErrDuplicateSKU", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateInsertsAllColumns(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	p := &Product{
		ID: "id-1", Name: "Rice", SKU: "RICE-5KG",
		UnitPrice: decimal.RequireFromString("250"), SellingPrice: decimal.RequireFromString("300"),
		Unit: "bag", IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO products")).
		WithArgs("id-1", "Rice", nil, "RICE-5KG", p.UnitPrice, p.SellingPrice, "bag", nil, nil, true, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetBySKUWithAndWithoutInventory(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	loc := "Shelf A"

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.sku = $1")).WithArgs("OIL-1").
		WillReturnRows(sqlmock.NewRows(joinColumns).AddRow(
			"id-1", "Oil", nil, "OIL-1", "100", "120", "bottle", "Grocery", nil, true, now, now,
			true, "3", "5", loc,
		))
	got, err := repo.GetBySKU(context.Background(), "OIL-1")
	if err != nil {
		t.Fatalf("GetBySKU: %v", err)
	}
	if got.Inventory == nil || !got.Inventory.Quantity.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("inventory = %+v", got.Inventory)
	}
	if !got.Inventory.MinStockLevel.Valid || got.Inventory.Location == nil || *got.Inventory.Location != loc {
		t.Fatalf("inventory details = %+v", got.Inventory)
	}
	if got.Category == nil || *got.Category != "Grocery" || got.Description != nil {
		t.Fatalf("product = %+v", got.Product)
	}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.sku = $1")).WithArgs("NEW-1").
		WillReturnRows(sqlmock.NewRows(joinColumns).AddRow(
			"id-2", "New", nil, "NEW-1", "1", "1", "pcs", nil, nil, true, now, now,
			false, nil, nil, nil,
		))
	got, err = repo.GetBySKU(context.Background(), "NEW-1")
	if err != nil {
		t.Fatalf("GetBySKU: %v", err)
	}
	if got.Inventory != nil || !got.Quantity().IsZero() {
		t.Fatalf("expected no inventory, got %+v", got.Inventory)
	}
}

func TestGetBySKUNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.sku = $1")).WithArgs("NONE").
		WillReturnRows(sqlmock.NewRows(joinColumns))
	if _, err := repo.GetBySKU(context.Background(), "NONE"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListCountsThenPages(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM products")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.name ASC, p.sku ASC LIMIT $1 OFFSET $2")).
		WithArgs(5, 10).
		WillReturnRows(sqlmock.NewRows(joinColumns).
			AddRow("a", "Apple", nil, "A1", "1", "2", "kg", nil, nil, true, now, now, true, "0", nil, nil).
			AddRow("b", "Banana", nil, "B1", "1", "2", "kg", nil, nil, true, now, now, true, "4", "5", nil))

	items, total, err := repo.List(context.Background(), 5, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 12 || len(items) != 2 || items[1].Name != "Banana" {
		t.Fatalf("total = %d items = %+v", total, items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSearchEscapesWildcards(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("p.name ILIKE $1 OR p.sku ILIKE $1")).
		WithArgs(`%50\%\_off%`, 10).
		WillReturnRows(sqlmock.NewRows(joinColumns))
	items, err := repo.Search(context.Background(), "50%_off", 10)
	if err != nil || len(items) != 0 {
		t.Fatalf("Search = %v, %v", items, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
