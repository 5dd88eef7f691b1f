package ledger

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-dist/meridian/internal/platform/db"
	"github.com/meridian-dist/meridian/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error)
}

// TxRepository exposes the mutations available inside a ledger transaction.
type TxRepository interface {
	ProductExists(ctx context.Context, productID int64) (bool, error)
	RegionExists(ctx context.Context, regionCode string) (bool, error)
	// DebitCentral decrements the central pool by qty only when the pool
	// holds at least qty. Returns false when the guard fails. This is the
	// single conditional update that replaces the source's unguarded
	// check-then-act sequence.
	DebitCentral(ctx context.Context, productID, qty int64) (bool, error)
	// CreditRegion adds qty to a region counter, creating the row on first use.
	CreditRegion(ctx context.Context, productID int64, regionCode string, qty int64) error
	// AdjustRegionClamped applies delta to a region counter, clamping at zero.
	// Returns the resulting quantity.
	AdjustRegionClamped(ctx context.Context, productID int64, regionCode string, delta int64) (int64, error)
	// ClearRegion resets a region counter to zero.
	ClearRegion(ctx context.Context, productID int64, regionCode string) error
	// AdjustCentralClamped applies delta to the central pool, clamping at zero.
	AdjustCentralClamped(ctx context.Context, productID, delta int64) (int64, error)
	InsertMovement(ctx context.Context, movement Movement) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Postgres backed ledger repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *repository) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	query := `SELECT id, product_id, COALESCE(region_code, ''), type, qty, note, actor_id, at
		FROM stock_movements WHERE product_id = $1`
	args := []any{filter.ProductID}
	if filter.RegionCode != "" {
		query += ` AND region_code = $2`
		args = append(args, filter.RegionCode)
	}
	query += ` ORDER BY at DESC`
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += ` LIMIT ` + strconv.Itoa(limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.RegionCode, &m.Type, &m.Qty, &m.Note, &m.ActorID, &m.At); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	return exists, err
}

func (t *txRepository) RegionExists(ctx context.Context, regionCode string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM regions WHERE code = $1)`, regionCode).Scan(&exists)
	return exists, err
}

func (t *txRepository) DebitCentral(ctx context.Context, productID, qty int64) (bool, error) {
	tag, err := t.tx.Exec(ctx,
		`UPDATE products SET total_stock = total_stock - $1, updated_at = NOW() WHERE id = $2 AND total_stock >= $1`,
		qty, productID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (t *txRepository) CreditRegion(ctx context.Context, productID int64, regionCode string, qty int64) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO region_stock (product_id, region_code, qty) VALUES ($1, $2, $3)
		 ON CONFLICT (product_id, region_code) DO UPDATE SET qty = region_stock.qty + EXCLUDED.qty`,
		productID, regionCode, qty)
	return err
}

func (t *txRepository) AdjustRegionClamped(ctx context.Context, productID int64, regionCode string, delta int64) (int64, error) {
	var qty int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO region_stock (product_id, region_code, qty) VALUES ($1, $2, GREATEST($3, 0))
		 ON CONFLICT (product_id, region_code) DO UPDATE SET qty = GREATEST(region_stock.qty + $3, 0)
		 RETURNING qty`,
		productID, regionCode, delta).Scan(&qty)
	return qty, err
}

func (t *txRepository) ClearRegion(ctx context.Context, productID int64, regionCode string) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO region_stock (product_id, region_code, qty) VALUES ($1, $2, 0)
		 ON CONFLICT (product_id, region_code) DO UPDATE SET qty = 0`,
		productID, regionCode)
	return err
}

func (t *txRepository) AdjustCentralClamped(ctx context.Context, productID, delta int64) (int64, error) {
	var qty int64
	err := t.tx.QueryRow(ctx,
		`UPDATE products SET total_stock = GREATEST(total_stock + $1, 0), updated_at = NOW() WHERE id = $2 RETURNING total_stock`,
		delta, productID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	return qty, err
}

func (t *txRepository) InsertMovement(ctx context.Context, movement Movement) error {
	var region any
	if movement.RegionCode != "" {
		region = movement.RegionCode
	}
	_, err := t.tx.Exec(ctx,
		`INSERT INTO stock_movements (product_id, region_code, type, qty, note, actor_id, at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		movement.ProductID, region, movement.Type, movement.Qty, movement.Note, movement.ActorID, movement.At)
	return err
}
