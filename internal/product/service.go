package product

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/stockbot/core/logger"
)

const component = "service.products"

// SearchLimit caps Search results.
const SearchLimit = 10

// Service is the directory API used by the bot flows.
type Service struct {
	repo  Repository
	now   func() time.Time
	newID func() string
}

// NewService wraps repo.
func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
}

// Create validates in and stores a new active product.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.TrimSpace(in.SKU)
	if err := in.Validate(); err != nil {
		logger.Warn(ctx, component, "create.invalid",
			slog.String("sku", in.SKU),
			slog.String("err", err.Error()),
		)
		return nil, err
	}

	ts := s.now()
	p := &Product{
		ID:           s.newID(),
		Name:         in.Name,
		Description:  in.Description,
		SKU:          in.SKU,
		UnitPrice:    in.UnitPrice,
		SellingPrice: in.SellingPrice,
		Unit:         strings.TrimSpace(in.Unit),
		Category:     in.Category,
		ImageURL:     in.ImageURL,
		IsActive:     true,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}

	start := time.Now()
	if err := s.repo.Create(ctx, p); err != nil {
		logger.Error(ctx, component, "create.fail",
			slog.String("sku", p.SKU),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	logger.Info(ctx, component, "create.ok",
		slog.String("sku", p.SKU),
		slog.String("id", p.ID),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return p, nil
}

// GetBySKU returns the product with its inventory, or nil when absent.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*ProductWithInventory, error) {
	p, err := s.repo.GetBySKU(ctx, sku)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error(ctx, component, "get.fail",
			slog.String("sku", sku),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	return p, nil
}

// List returns one page (1-based) ordered by name, plus the total product count.
func (s *Service) List(ctx context.Context, page, size int) ([]ProductWithInventory, int, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	items, total, err := s.repo.List(ctx, size, (page-1)*size)
	if err != nil {
		logger.Error(ctx, component, "list.fail",
			slog.Int("page", page),
			slog.String("err", err.Error()),
		)
		return nil, 0, err
	}
	logger.Debug(ctx, component, "list.ok",
		slog.Int("page", page),
		slog.Int("total", total),
	)
	return items, total, nil
}

// Search matches query against names and SKUs, returning at most SearchLimit items.
func (s *Service) Search(ctx context.Context, query string) ([]ProductWithInventory, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	items, err := s.repo.Search(ctx, query, SearchLimit)
	if err != nil {
		logger.Error(ctx, component, "search.fail",
			slog.String("query", logger.SanitizeLimit(query, 64)),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	return items, nil
}

// Ping checks the directory is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
