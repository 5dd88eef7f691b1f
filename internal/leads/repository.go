package leads

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-dist/meridian/internal/platform/db"
	"github.com/meridian-dist/meridian/internal/shared"
)

// RepositoryPort defines data access for leads and abandoned carts.
type RepositoryPort interface {
	CreateLead(ctx context.Context, lead WebLead) (WebLead, error)
	GetLead(ctx context.Context, id int64) (WebLead, error)
	ListLeads(ctx context.Context, status LeadStatus) ([]WebLead, error)
	UpdateLeadStatus(ctx context.Context, id int64, status LeadStatus) error

	CreateCart(ctx context.Context, cart AbandonedCart) (AbandonedCart, error)
	GetCart(ctx context.Context, id int64) (AbandonedCart, error)
	ListCarts(ctx context.Context, status CartStatus) ([]AbandonedCart, error)
	UpdateCartStatus(ctx context.Context, id int64, status CartStatus) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Postgres backed leads repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{pool: pool}
}

func (r *repository) CreateLead(ctx context.Context, lead WebLead) (WebLead, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO web_leads (name, phone, email, address, source, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`,
			lead.Name, lead.Phone, lead.Email, lead.Address, lead.Source, lead.Status, lead.CreatedAt).Scan(&lead.ID)
		if err != nil {
			return err
		}
		return insertItems(ctx, tx, "lead_items", "lead_id", lead.ID, lead.Items)
	})
	if err != nil {
		return WebLead{}, err
	}
	return lead, nil
}

func (r *repository) GetLead(ctx context.Context, id int64) (WebLead, error) {
	var lead WebLead
	err := r.pool.QueryRow(ctx,
		`SELECT id, COALESCE(name, ''), phone, COALESCE(email, ''), COALESCE(address, ''),
			COALESCE(source, ''), status, created_at, updated_at
		 FROM web_leads WHERE id = $1`, id).
		Scan(&lead.ID, &lead.Name, &lead.Phone, &lead.Email, &lead.Address,
			&lead.Source, &lead.Status, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WebLead{}, shared.ErrNotFound
		}
		return WebLead{}, err
	}
	lead.Items, err = r.loadItems(ctx, "lead_items", "lead_id", id)
	return lead, err
}

func (r *repository) ListLeads(ctx context.Context, status LeadStatus) ([]WebLead, error) {
	query := `SELECT id, COALESCE(name, ''), phone, COALESCE(email, ''), COALESCE(address, ''),
		COALESCE(source, ''), status, created_at, updated_at FROM web_leads`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []WebLead
	for rows.Next() {
		var lead WebLead
		if err := rows.Scan(&lead.ID, &lead.Name, &lead.Phone, &lead.Email, &lead.Address,
			&lead.Source, &lead.Status, &lead.CreatedAt, &lead.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Items, err = r.loadItems(ctx, "lead_items", "lead_id", result[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *repository) UpdateLeadStatus(ctx context.Context, id int64, status LeadStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE web_leads SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) CreateCart(ctx context.Context, cart AbandonedCart) (AbandonedCart, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO abandoned_carts (name, phone, email, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`,
			cart.Name, cart.Phone, cart.Email, cart.Status, cart.CreatedAt).Scan(&cart.ID)
		if err != nil {
			return err
		}
		return insertItems(ctx, tx, "cart_items", "cart_id", cart.ID, cart.Items)
	})
	if err != nil {
		return AbandonedCart{}, err
	}
	return cart, nil
}

func (r *repository) GetCart(ctx context.Context, id int64) (AbandonedCart, error) {
	var cart AbandonedCart
	err := r.pool.QueryRow(ctx,
		`SELECT id, COALESCE(name, ''), phone, COALESCE(email, ''), status, created_at, updated_at
		 FROM abandoned_carts WHERE id = $1`, id).
		Scan(&cart.ID, &cart.Name, &cart.Phone, &cart.Email, &cart.Status, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AbandonedCart{}, shared.ErrNotFound
		}
		return AbandonedCart{}, err
	}
	cart.Items, err = r.loadItems(ctx, "cart_items", "cart_id", id)
	return cart, err
}

func (r *repository) ListCarts(ctx context.Context, status CartStatus) ([]AbandonedCart, error) {
	query := `SELECT id, COALESCE(name, ''), phone, COALESCE(email, ''), status, created_at, updated_at
		FROM abandoned_carts`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AbandonedCart
	for rows.Next() {
		var cart AbandonedCart
		if err := rows.Scan(&cart.ID, &cart.Name, &cart.Phone, &cart.Email, &cart.Status,
			&cart.CreatedAt, &cart.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, cart)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Items, err = r.loadItems(ctx, "cart_items", "cart_id", result[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *repository) UpdateCartStatus(ctx context.Context, id int64, status CartStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE abandoned_carts SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func insertItems(ctx context.Context, tx pgx.Tx, table, fk string, ownerID int64, items []Item) error {
	for i := range items {
		item := &items[i]
		err := tx.QueryRow(ctx,
			`INSERT INTO `+table+` (`+fk+`, product_id, product_name, qty, captured_price)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			ownerID, item.ProductID, item.ProductName, item.Qty, item.CapturedPrice).Scan(&item.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) loadItems(ctx context.Context, table, fk string, ownerID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, COALESCE(product_name, ''), qty, captured_price
		 FROM `+table+` WHERE `+fk+` = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.ProductID, &item.ProductName, &item.Qty, &item.CapturedPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
