package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odiadev/tts-gateway/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, name, password_hash, plan, chars_used_month, month_anchor, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Plan,
		&u.CharsUsedMonth, &u.MonthAnchor, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user on the given plan with a fresh monthly counter.
func (r *Repository) Create(ctx context.Context, email, passwordHash, name, plan, monthAnchor string) (*models.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, password_hash, plan, chars_used_month, month_anchor)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
		RETURNING `+userColumns, uuid.New(), email, name, passwordHash, plan, monthAnchor)
	return scanUser(row)
}

// GetByEmail returns the user for login, or nil when no such email exists.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// AddMonthlyChars accounts chars against the user's monthly counter. The
// CASE handles billing-month rollover in the same atomic statement: a stale
// anchor restarts the counter at chars instead of accumulating into the old
// month.
func (r *Repository) AddMonthlyChars(ctx context.Context, id uuid.UUID, chars int, monthAnchor string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET
		    chars_used_month = CASE WHEN month_anchor = $3 THEN chars_used_month + $1 ELSE $1 END,
		    month_anchor = $3,
		    updated_at = now()
		WHERE id = $2
	`, chars, id, monthAnchor)
	return err
}
