package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort defines the read queries behind the dashboard.
type RepositoryPort interface {
	Financials(ctx context.Context, from, to time.Time) (Financials, error)
	OrdersByStatus(ctx context.Context) (map[string]int64, error)
	PendingUsers(ctx context.Context) (int64, error)
	OpenLeads(ctx context.Context) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Postgres backed dashboard repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{pool: pool}
}

// Financials aggregates over orders delivered inside the window. Nothing is
// accrued for undelivered orders.
func (r *repository) Financials(ctx context.Context, from, to time.Time) (Financials, error) {
	var f Financials
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_amount), 0), COALESCE(SUM(logistics_cost), 0)
		 FROM orders
		 WHERE delivery_status = 'DELIVERED' AND delivered_at >= $1 AND delivered_at <= $2`,
		from, to).Scan(&f.Revenue, &f.LogisticsExpense)
	if err != nil {
		return Financials{}, err
	}
	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(oi.unit_cost * oi.qty), 0)
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 WHERE o.delivery_status = 'DELIVERED' AND o.delivered_at >= $1 AND o.delivered_at <= $2`,
		from, to).Scan(&f.COGS)
	if err != nil {
		return Financials{}, err
	}
	f.NetProfit = f.Revenue - f.LogisticsExpense - f.COGS
	return f, nil
}

func (r *repository) OrdersByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT delivery_status, COUNT(*) FROM orders GROUP BY delivery_status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		result[status] = count
	}
	return result, rows.Err()
}

func (r *repository) PendingUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE approval_status = 'PENDING'`).Scan(&count)
	return count, err
}

func (r *repository) OpenLeads(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM web_leads WHERE status IN ('NEW', 'CONTACTED')`).Scan(&count)
	return count, err
}
