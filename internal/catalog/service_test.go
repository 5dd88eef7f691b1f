package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-dist/meridian/internal/shared"
)

type memoryCatalogRepo struct {
	nextID   int64
	products map[int64]*Product
}

func newMemoryCatalogRepo() *memoryCatalogRepo {
	return &memoryCatalogRepo{nextID: 1, products: make(map[int64]*Product)}
}

func (m *memoryCatalogRepo) List(_ context.Context, _ ListFilters) ([]Product, int, error) {
	result := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		result = append(result, *p)
	}
	return result, len(result), nil
}

func (m *memoryCatalogRepo) Get(_ context.Context, id int64) (Product, error) {
	p, ok := m.products[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return *p, nil
}

func (m *memoryCatalogRepo) Create(_ context.Context, product Product) (Product, error) {
	for _, existing := range m.products {
		if existing.SKU == product.SKU {
			return Product{}, ErrDuplicateSKU
		}
	}
	product.ID = m.nextID
	m.nextID++
	stored := product
	m.products[product.ID] = &stored
	return product, nil
}

func (m *memoryCatalogRepo) Update(_ context.Context, id int64, product Product) error {
	stored, ok := m.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	stored.Name = product.Name
	stored.SKU = product.SKU
	stored.CostPrice = product.CostPrice
	stored.SellingPrice = product.SellingPrice
	return nil
}

func (m *memoryCatalogRepo) SetActive(_ context.Context, id int64, active bool) error {
	stored, ok := m.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	stored.IsActive = active
	return nil
}

func TestCreateValidatesProduct(t *testing.T) {
	svc := NewService(newMemoryCatalogRepo())

	_, err := svc.Create(context.Background(), Product{SKU: "SL-20W", SellingPrice: 100})
	require.ErrorIs(t, err, ErrInvalidProduct)

	_, err = svc.Create(context.Background(), Product{Name: "Solar Lamp", SKU: "SL-20W", SellingPrice: -1})
	require.ErrorIs(t, err, ErrInvalidProduct)

	created, err := svc.Create(context.Background(), Product{
		Name: "  Solar Lamp ", SKU: " SL-20W ", CostPrice: 9000, SellingPrice: 15000, TotalStock: 20,
	})
	require.NoError(t, err)
	require.Equal(t, "Solar Lamp", created.Name)
	require.Equal(t, "SL-20W", created.SKU)
	require.True(t, created.IsActive)
	require.EqualValues(t, 20, created.TotalStock)

	_, err = svc.Create(context.Background(), Product{Name: "Other", SKU: "SL-20W", SellingPrice: 1})
	require.ErrorIs(t, err, ErrDuplicateSKU)
}

func TestProductSnapshotReflectsCurrentPrices(t *testing.T) {
	repo := newMemoryCatalogRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Product{
		Name: "Solar Lamp", SKU: "SL-20W", CostPrice: 9000, SellingPrice: 15000,
	})
	require.NoError(t, err)

	snapshot, err := svc.ProductSnapshot(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, Snapshot{Name: "Solar Lamp", SellingPrice: 15000, CostPrice: 9000}, snapshot)

	require.NoError(t, svc.Update(context.Background(), created.ID, Product{
		Name: "Solar Lamp", SKU: "SL-20W", CostPrice: 9000, SellingPrice: 18000,
	}))
	snapshot, err = svc.ProductSnapshot(context.Background(), created.ID)
	require.NoError(t, err)
	require.EqualValues(t, 18000, snapshot.SellingPrice)

	_, err = svc.ProductSnapshot(context.Background(), 999)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeactivateHidesProduct(t *testing.T) {
	repo := newMemoryCatalogRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Product{Name: "Solar Lamp", SKU: "SL-20W", SellingPrice: 100})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), created.ID))
	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
}
