package catalog

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidProduct indicates a product failed basic validation.
var ErrInvalidProduct = errors.New("catalog: name, sku and non-negative prices required")

// Service coordinates catalog operations.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns products with their regional stock maps.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new product. Initial stock goes into the central pool.
func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	if err := validate(&product); err != nil {
		return Product{}, err
	}
	if product.TotalStock < 0 {
		return Product{}, ErrInvalidProduct
	}
	product.IsActive = true
	return s.repo.Create(ctx, product)
}

// Update changes catalog fields. Stock counters are mutated only through the
// ledger, never here.
func (s *Service) Update(ctx context.Context, id int64, product Product) error {
	if err := validate(&product); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, product)
}

// Deactivate hides a product from new orders without deleting history.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}

// ProductSnapshot returns the pricing fields captured into order lines.
func (s *Service) ProductSnapshot(ctx context.Context, id int64) (Snapshot, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Name: product.Name, SellingPrice: product.SellingPrice, CostPrice: product.CostPrice}, nil
}

func validate(product *Product) error {
	product.Name = strings.TrimSpace(product.Name)
	product.SKU = strings.TrimSpace(product.SKU)
	if product.Name == "" || product.SKU == "" {
		return ErrInvalidProduct
	}
	if product.CostPrice < 0 || product.SellingPrice < 0 {
		return ErrInvalidProduct
	}
	return nil
}
