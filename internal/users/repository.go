package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-dist/meridian/internal/platform/db"
	"github.com/meridian-dist/meridian/internal/shared"
)

// RepositoryPort defines data access for user accounts.
type RepositoryPort interface {
	// Create inserts the user. When no user exists yet the insert runs as
	// the bootstrap: the new account becomes an approved Admin. The count
	// check runs under a transaction-scoped advisory lock so concurrent
	// first registrations cannot both bootstrap.
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, status ApprovalStatus) ([]User, error)
	SetApproval(ctx context.Context, id int64, status ApprovalStatus) error
	SetActive(ctx context.Context, id int64, active bool) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Postgres backed user repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{pool: pool}
}

const userColumns = `id, email, name, password_hash, role, approval_status, is_active, created_at, updated_at`

// bootstrapLockID keys the advisory lock serializing registrations.
const bootstrapLockID = int64(874002)

func (r *repository) Create(ctx context.Context, user User) (User, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		// The transaction runs ReadCommitted, so two concurrent first
		// registrations could both read a zero count. The lock is held
		// until commit and serializes the count-then-insert sequence.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, bootstrapLockID); err != nil {
			return err
		}
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			user.Role = shared.RoleAdmin
			user.ApprovalStatus = ApprovalApproved
		}
		return tx.QueryRow(ctx,
			`INSERT INTO users (email, name, password_hash, role, approval_status, is_active, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`,
			user.Email, user.Name, user.PasswordHash, user.Role, user.ApprovalStatus,
			user.IsActive, user.CreatedAt).Scan(&user.ID)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrDuplicateEmail
		}
		return User{}, err
	}
	return user, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (User, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *repository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *repository) List(ctx context.Context, status ApprovalStatus) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if status != "" {
		query += ` WHERE approval_status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
			&u.ApprovalStatus, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (r *repository) SetApproval(ctx context.Context, id int64, status ApprovalStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET approval_status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) scanOne(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&u.ApprovalStatus, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}
