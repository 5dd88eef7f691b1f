package orders

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-dist/meridian/internal/platform/db"
	"github.com/meridian-dist/meridian/internal/shared"
)

// RepositoryPort defines data access for orders.
type RepositoryPort interface {
	Create(ctx context.Context, order Order) (Order, error)
	Get(ctx context.Context, id int64) (Order, error)
	List(ctx context.Context, filters ListFilters) ([]Order, int, error)
	UpdateStatus(ctx context.Context, id int64, patch StatusPatch) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Postgres backed order repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{pool: pool}
}

const orderColumns = `id, tracking_code, customer_name, customer_phone, customer_address, region_code,
	total_amount, logistics_cost, payment_status, delivery_status, created_by, agent_name,
	rescheduled_date, COALESCE(reschedule_notes, ''), reminder_set, COALESCE(cancel_reason, ''),
	lead_id, delivered_at, created_at, updated_at`

func (r *repository) Create(ctx context.Context, order Order) (Order, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO orders (tracking_code, customer_name, customer_phone, customer_address, region_code,
				total_amount, payment_status, delivery_status, created_by, agent_name, lead_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12) RETURNING id`,
			order.TrackingCode, order.CustomerName, order.CustomerPhone, order.CustomerAddress, order.RegionCode,
			order.TotalAmount, order.PaymentStatus, order.DeliveryStatus, order.CreatedBy, order.AgentName,
			order.LeadID, order.CreatedAt).Scan(&order.ID)
		if err != nil {
			return err
		}
		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID
			err := tx.QueryRow(ctx,
				`INSERT INTO order_items (order_id, product_id, product_name, qty, unit_price, unit_cost)
				 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
				item.OrderID, item.ProductID, item.ProductName, item.Qty, item.UnitPrice, item.UnitCost).Scan(&item.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, shared.ErrNotFound
		}
		return Order{}, err
	}
	items, err := r.loadItems(ctx, []int64{order.ID})
	if err != nil {
		return Order{}, err
	}
	order.Items = items[order.ID]
	return order, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Order, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Status != "" {
		argCount++
		where += ` AND delivery_status = $` + strconv.Itoa(argCount)
		args = append(args, filters.Status)
	}
	if filters.RegionCode != "" {
		argCount++
		where += ` AND region_code = $` + strconv.Itoa(argCount)
		args = append(args, filters.RegionCode)
	}
	if !filters.From.IsZero() {
		argCount++
		where += ` AND created_at >= $` + strconv.Itoa(argCount)
		args = append(args, filters.From)
	}
	if !filters.To.IsZero() {
		argCount++
		where += ` AND created_at <= $` + strconv.Itoa(argCount)
		args = append(args, filters.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY created_at DESC`
	if filters.PerPage > 0 {
		page := filters.Page
		if page <= 0 {
			page = 1
		}
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.PerPage)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, (page-1)*filters.PerPage)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Order
	ids := make([]int64, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range result {
		result[i].Items = items[result[i].ID]
	}
	return result, total, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, patch StatusPatch) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET delivery_status = $1,
			logistics_cost = COALESCE($2, logistics_cost),
			delivered_at = COALESCE($3, delivered_at),
			rescheduled_date = COALESCE($4, rescheduled_date),
			reschedule_notes = COALESCE($5, reschedule_notes),
			reminder_set = COALESCE($6, reminder_set),
			cancel_reason = COALESCE($7, cancel_reason),
			updated_at = $8
		 WHERE id = $9`,
		patch.Status, patch.LogisticsCost, patch.DeliveredAt, patch.RescheduledDate,
		patch.RescheduleNotes, patch.ReminderSet, patch.CancelReason, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) loadItems(ctx context.Context, orderIDs []int64) (map[int64][]OrderItem, error) {
	result := make(map[int64][]OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, product_id, product_name, qty, unit_price, unit_cost
		 FROM order_items WHERE order_id = ANY($1) ORDER BY id`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Qty, &item.UnitPrice, &item.UnitCost); err != nil {
			return nil, err
		}
		result[item.OrderID] = append(result[item.OrderID], item)
	}
	return result, rows.Err()
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.TrackingCode, &o.CustomerName, &o.CustomerPhone, &o.CustomerAddress, &o.RegionCode,
		&o.TotalAmount, &o.LogisticsCost, &o.PaymentStatus, &o.DeliveryStatus, &o.CreatedBy, &o.AgentName,
		&o.RescheduledDate, &o.RescheduleNotes, &o.ReminderSet, &o.CancelReason,
		&o.LeadID, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
