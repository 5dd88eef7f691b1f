package regions

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-dist/meridian/internal/shared"
)

// Repository defines data access for regions.
type Repository interface {
	List(ctx context.Context) ([]Region, error)
	Get(ctx context.Context, code string) (Region, error)
	Create(ctx context.Context, region Region) (Region, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a Postgres backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// ErrDuplicateCode indicates a region code already exists.
var ErrDuplicateCode = errors.New("regions: code already exists")

func (r *repository) List(ctx context.Context) ([]Region, error) {
	rows, err := r.db.Query(ctx, `SELECT code, name, is_active, created_at FROM regions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Region
	for rows.Next() {
		var reg Region
		if err := rows.Scan(&reg.Code, &reg.Name, &reg.IsActive, &reg.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, reg)
	}
	return result, rows.Err()
}

func (r *repository) Get(ctx context.Context, code string) (Region, error) {
	var reg Region
	err := r.db.QueryRow(ctx, `SELECT code, name, is_active, created_at FROM regions WHERE code = $1`, code).
		Scan(&reg.Code, &reg.Name, &reg.IsActive, &reg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Region{}, shared.ErrNotFound
	}
	return reg, err
}

func (r *repository) Create(ctx context.Context, region Region) (Region, error) {
	region.CreatedAt = time.Now().UTC()
	_, err := r.db.Exec(ctx, `INSERT INTO regions (code, name, is_active, created_at) VALUES ($1, $2, $3, $4)`,
		region.Code, region.Name, region.IsActive, region.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Region{}, ErrDuplicateCode
		}
		return Region{}, err
	}
	return region, nil
}
