package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type fakeRepo struct {
	created   []*Product
	createErr error
	bySKU     map[string]*ProductWithInventory
	getErr    error
	limit     int
	offset    int
	searchQ   string
}

func (f *fakeRepo) Create(_ context.Context, p *Product) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, p)
	return nil
}

func (f *fakeRepo) GetBySKU(_ context.Context, sku string) (*ProductWithInventory, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if p, ok := f.bySKU[sku]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) List(_ context.Context, limit, offset int) ([]ProductWithInventory, int, error) {
	f.limit, f.offset = limit, offset
	return nil, 0, nil
}

func (f *fakeRepo) Search(_ context.Context, q string, limit int) ([]ProductWithInventory, error) {
	f.searchQ, f.limit = q, limit
	return nil, nil
}

func (f *fakeRepo) Ping(context.Context) error { return nil }

func validInput() CreateInput {
	return CreateInput{
		Name:         " Basmati Rice ",
		SKU:          "RICE-5",
		UnitPrice:    decimal.RequireFromString("250.50"),
		SellingPrice: decimal.RequireFromString("300"),
		Unit:         "bag",
	}
}

func TestServiceCreateAssignsIdentity(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	fixed := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	svc.newID = func() string { return "uuid-1" }

	p, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID != "uuid-1" || !p.IsActive || p.Name != "Basmati Rice" || !p.CreatedAt.Equal(fixed) {
		t.Fatalf("product = %+v", p)
	}
	if len(repo.created) != 1 {
		t.Fatalf("created = %d", len(repo.created))
	}
}

func TestServiceCreateRejectsInvalid(t *testing.T) {
	cases := map[string]func(*CreateInput){
		"empty name":     func(in *CreateInput) { in.Name = "  " },
		"bad sku":        func(in *CreateInput) { in.SKU = "has space" },
		"negative cost":  func(in *CreateInput) { in.UnitPrice = decimal.NewFromInt(-1) },
		"selling < cost": func(in *CreateInput) { in.SellingPrice = decimal.NewFromInt(100) },
	}
	for name, mutate := range cases {
		repo := &fakeRepo{}
		in := validInput()
		mutate(&in)
		if _, err := NewService(repo).Create(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: err = %v, want ErrInvalidInput", name, err)
		}
		if len(repo.created) != 0 {
			t.Fatalf("%s: repository was called", name)
		}
	}
}

func TestServiceGetBySKUAbsentIsNil(t *testing.T) {
	svc := NewService(&fakeRepo{})
	p, err := svc.GetBySKU(context.Background(), "MISSING")
	if err != nil || p != nil {
		t.Fatalf("GetBySKU = %v, %v; want nil, nil", p, err)
	}

	boom := errors.New("connection reset")
	if _, err := NewService(&fakeRepo{getErr: boom}).GetBySKU(context.Background(), "X"); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestServiceListOffsets(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	_, _, _ = svc.List(context.Background(), 3, 5)
	if repo.limit != 5 || repo.offset != 10 {
		t.Fatalf("limit = %d offset = %d", repo.limit, repo.offset)
	}
	_, _, _ = svc.List(context.Background(), 0, 5)
	if repo.offset != 0 {
		t.Fatalf("page 0 offset = %d", repo.offset)
	}
}

func TestServiceSearch(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	if items, err := svc.Search(context.Background(), "   "); items != nil || err != nil {
		t.Fatal("blank query must not hit the repository")
	}
	_, _ = svc.Search(context.Background(), " rice ")
	if repo.searchQ != "rice" || repo.limit != SearchLimit {
		t.Fatalf("query = %q limit = %d", repo.searchQ, repo.limit)
	}
}

func TestValidSKU(t *testing.T) {
	for _, s := range []string{"ABC", "a-b_c", "123"} {
		if !ValidSKU(s) {
			t.Fatalf("ValidSKU(%q) = false", s)
		}
	}
	long := make([]byte, MaxSKULength+1)
	for i := range long {
		long[i] = 'A'
	}
	for _, s := range []string{"", "a b", "a:b", "ü", string(long)} {
		if ValidSKU(s) {
			t.Fatalf("ValidSKU(%q) = true", s)
		}
	}
}
