package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-dist/meridian/internal/shared"
)

type memoryRepo struct {
	central      map[int64]int64
	regions      map[string]int64
	knownRegions map[string]bool
	movements    []Movement
	nextID       int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		central:      make(map[int64]int64),
		regions:      make(map[string]int64),
		knownRegions: map[string]bool{"LAGOS": true, "ABUJA": true},
	}
}

func regionKey(productID int64, region string) string {
	return fmt.Sprintf("%d:%s", productID, region)
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	// The fake applies mutations directly; tests only assert final state, so
	// rollback-on-error is emulated by asserting no mutation ran before the
	// failing step.
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	result := make([]Movement, len(r.movements))
	copy(result, r.movements)
	return result, nil
}

func (tx *memoryTx) ProductExists(ctx context.Context, productID int64) (bool, error) {
	_, ok := tx.repo.central[productID]
	return ok, nil
}

func (tx *memoryTx) RegionExists(ctx context.Context, regionCode string) (bool, error) {
	return tx.repo.knownRegions[regionCode], nil
}

func (tx *memoryTx) DebitCentral(ctx context.Context, productID, qty int64) (bool, error) {
	if tx.repo.central[productID] < qty {
		return false, nil
	}
	tx.repo.central[productID] -= qty
	return true, nil
}

func (tx *memoryTx) CreditRegion(ctx context.Context, productID int64, regionCode string, qty int64) error {
	tx.repo.regions[regionKey(productID, regionCode)] += qty
	return nil
}

func (tx *memoryTx) AdjustRegionClamped(ctx context.Context, productID int64, regionCode string, delta int64) (int64, error) {
	key := regionKey(productID, regionCode)
	next := tx.repo.regions[key] + delta
	if next < 0 {
		next = 0
	}
	tx.repo.regions[key] = next
	return next, nil
}

func (tx *memoryTx) ClearRegion(ctx context.Context, productID int64, regionCode string) error {
	tx.repo.regions[regionKey(productID, regionCode)] = 0
	return nil
}

func (tx *memoryTx) AdjustCentralClamped(ctx context.Context, productID, delta int64) (int64, error) {
	if _, ok := tx.repo.central[productID]; !ok {
		return 0, shared.ErrNotFound
	}
	next := tx.repo.central[productID] + delta
	if next < 0 {
		next = 0
	}
	tx.repo.central[productID] = next
	return next, nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, movement Movement) error {
	tx.repo.nextID++
	movement.ID = tx.repo.nextID
	tx.repo.movements = append(tx.repo.movements, movement)
	return nil
}

func TestTransferMovesStockBetweenPools(t *testing.T) {
	repo := newMemoryRepo()
	repo.central[1] = 20
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	err := svc.Transfer(ctx, TransferInput{ProductID: 1, RegionCode: "Lagos", Qty: 15, ActorID: 7})
	require.NoError(t, err)
	require.EqualValues(t, 5, repo.central[1])
	require.EqualValues(t, 15, repo.regions[regionKey(1, "LAGOS")])

	// Second transfer exceeds the remaining pool and must change nothing.
	err = svc.Transfer(ctx, TransferInput{ProductID: 1, RegionCode: "Lagos", Qty: 10, ActorID: 7})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.EqualValues(t, 5, repo.central[1])
	require.EqualValues(t, 15, repo.regions[regionKey(1, "LAGOS")])
}

func TestTransferLeavesOtherRegionsUntouched(t *testing.T) {
	repo := newMemoryRepo()
	repo.central[1] = 50
	repo.regions[regionKey(1, "ABUJA")] = 9
	svc := NewService(repo, nil, nil, nil)

	err := svc.Transfer(context.Background(), TransferInput{ProductID: 1, RegionCode: "LAGOS", Qty: 10})
	require.NoError(t, err)
	require.EqualValues(t, 40, repo.central[1])
	require.EqualValues(t, 10, repo.regions[regionKey(1, "LAGOS")])
	require.EqualValues(t, 9, repo.regions[regionKey(1, "ABUJA")])
}

func TestTransferValidation(t *testing.T) {
	repo := newMemoryRepo()
	repo.central[1] = 10
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	err := svc.Transfer(ctx, TransferInput{ProductID: 1, RegionCode: "LAGOS", Qty: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	err = svc.Transfer(ctx, TransferInput{ProductID: 1, RegionCode: "  ", Qty: 5})
	require.ErrorIs(t, err, ErrRegionRequired)

	err = svc.Transfer(ctx, TransferInput{ProductID: 99, RegionCode: "LAGOS", Qty: 5})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.EqualValues(t, 10, repo.central[1])
}

func TestTransferRejectsUnknownRegion(t *testing.T) {
	repo := newMemoryRepo()
	repo.central[1] = 20
	svc := NewService(repo, nil, nil, nil)

	err := svc.Transfer(context.Background(), TransferInput{ProductID: 1, RegionCode: "ATLANTIS", Qty: 5})
	require.ErrorIs(t, err, ErrUnknownRegion)
	require.EqualValues(t, 20, repo.central[1])
	require.Empty(t, repo.movements)
}

func TestAdjustRegionRejectsUnknownRegion(t *testing.T) {
	repo := newMemoryRepo()
	repo.central[1] = 20
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.AdjustRegion(context.Background(), RegionAdjustInput{ProductID: 1, RegionCode: "ATLANTIS", Delta: 5})
	require.ErrorIs(t, err, ErrUnknownRegion)
	require.Empty(t, repo.movements)
}

func TestAdjustRegionClampsAtZero(t *testing.T) {
	repo := newMemoryRepo()
	repo.central[1] = 0
	repo.regions[regionKey(1, "LAGOS")] = 4
	svc := NewService(repo, nil, nil, nil)

	qty, err := svc.AdjustRegion(context.Background(), RegionAdjustInput{ProductID: 1, RegionCode: "LAGOS", Delta: -10})
	require.NoError(t, err)
	require.EqualValues(t, 0, qty)
	require.EqualValues(t, 0, repo.regions[regionKey(1, "LAGOS")])
	// The central pool is independent and must not move.
	require.EqualValues(t, 0, repo.central[1])
}

func TestAdjustRegionClear(t *testing.T) {
	repo := newMemoryRepo()
	repo.central[1] = 3
	repo.regions[regionKey(1, "LAGOS")] = 42
	svc := NewService(repo, nil, nil, nil)

	qty, err := svc.AdjustRegion(context.Background(), RegionAdjustInput{ProductID: 1, RegionCode: "LAGOS", Clear: true})
	require.NoError(t, err)
	require.EqualValues(t, 0, qty)
	require.EqualValues(t, 0, repo.regions[regionKey(1, "LAGOS")])
	require.EqualValues(t, 3, repo.central[1])
}

func TestAdjustRegionDoesNotTouchCentral(t *testing.T) {
	repo := newMemoryRepo()
	repo.central[1] = 8
	svc := NewService(repo, nil, nil, nil)

	qty, err := svc.AdjustRegion(context.Background(), RegionAdjustInput{ProductID: 1, RegionCode: "LAGOS", Delta: 12})
	require.NoError(t, err)
	require.EqualValues(t, 12, qty)
	require.EqualValues(t, 8, repo.central[1])
}

func TestAdjustCentralClampsAtZero(t *testing.T) {
	repo := newMemoryRepo()
	repo.central[1] = 5
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	qty, err := svc.AdjustCentral(ctx, CentralAdjustInput{ProductID: 1, Delta: -20})
	require.NoError(t, err)
	require.EqualValues(t, 0, qty)

	qty, err = svc.AdjustCentral(ctx, CentralAdjustInput{ProductID: 1, Delta: 7})
	require.NoError(t, err)
	require.EqualValues(t, 7, qty)

	_, err = svc.AdjustCentral(ctx, CentralAdjustInput{ProductID: 1, Delta: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestMovementsRecorded(t *testing.T) {
	repo := newMemoryRepo()
	repo.central[1] = 30
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.Transfer(ctx, TransferInput{ProductID: 1, RegionCode: "LAGOS", Qty: 5, Note: "initial allocation"}))
	_, err := svc.AdjustRegion(ctx, RegionAdjustInput{ProductID: 1, RegionCode: "LAGOS", Clear: true})
	require.NoError(t, err)

	movements, err := svc.Movements(ctx, MovementFilter{ProductID: 1})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	require.Equal(t, MovementTransfer, movements[0].Type)
	require.Equal(t, MovementRegionClear, movements[1].Type)
	require.Equal(t, "initial allocation", movements[0].Note)
}
