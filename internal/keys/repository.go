package keys

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odiadev/tts-gateway/internal/models"
)

// ErrQuotaExhausted is returned by RecordUsage when the increment would push
// usage_count past total_quota. The counter is never advanced in that case.
var ErrQuotaExhausted = errors.New("total quota exhausted")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// KeyWithUser is returned by FindByKeyHash (api_key joined with its user).
type KeyWithUser struct {
	APIKey models.APIKey
	User   models.User
}

func (r *Repository) Create(ctx context.Context, k *models.APIKey) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, rate_limit_per_minute, total_quota, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, k.ID, k.UserID, k.Name, k.KeyHash, k.KeyPrefix, k.RateLimitPerMinute, k.TotalQuota, k.Status)
	return err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error) {
	var k models.APIKey
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, key_hash, key_prefix, rate_limit_per_minute,
		       total_quota, usage_count, characters_used, status, created_at, last_used_at
		FROM api_keys WHERE id = $1
	`, id).Scan(
		&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.RateLimitPerMinute,
		&k.TotalQuota, &k.UsageCount, &k.CharactersUsed, &k.Status, &k.CreatedAt, &k.LastUsedAt,
	)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// ListByUserID returns all API keys for the given user, including revoked ones.
func (r *Repository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, key_hash, key_prefix, rate_limit_per_minute,
		       total_quota, usage_count, characters_used, status, created_at, last_used_at
		FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(
			&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.RateLimitPerMinute,
			&k.TotalQuota, &k.UsageCount, &k.CharactersUsed, &k.Status, &k.CreatedAt, &k.LastUsedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, &k)
	}
	if list == nil {
		list = []*models.APIKey{}
	}
	return list, rows.Err()
}

// FindByKeyHash returns the active api_key and joined user for the given key
// hash. Revoked keys and unknown hashes both come back as pgx.ErrNoRows so the
// caller cannot tell them apart.
func (r *Repository) FindByKeyHash(ctx context.Context, keyHash string) (*KeyWithUser, error) {
	var out KeyWithUser
	err := r.pool.QueryRow(ctx, `
		SELECT k.id, k.user_id, k.name, k.key_hash, k.key_prefix, k.rate_limit_per_minute,
		       k.total_quota, k.usage_count, k.characters_used, k.status, k.created_at, k.last_used_at,
		       u.id, u.email, u.name, u.password_hash, u.plan, u.chars_used_month, u.month_anchor, u.created_at, u.updated_at
		FROM api_keys k
		INNER JOIN users u ON u.id = k.user_id
		WHERE k.key_hash = $1 AND k.status = 'active'
	`, keyHash).Scan(
		&out.APIKey.ID, &out.APIKey.UserID, &out.APIKey.Name, &out.APIKey.KeyHash, &out.APIKey.KeyPrefix,
		&out.APIKey.RateLimitPerMinute, &out.APIKey.TotalQuota, &out.APIKey.UsageCount, &out.APIKey.CharactersUsed,
		&out.APIKey.Status, &out.APIKey.CreatedAt, &out.APIKey.LastUsedAt,
		&out.User.ID, &out.User.Email, &out.User.Name, &out.User.PasswordHash, &out.User.Plan,
		&out.User.CharsUsedMonth, &out.User.MonthAnchor, &out.User.CreatedAt, &out.User.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordUsage advances the key's counters in one guarded UPDATE. The WHERE
// clause enforces usage_count < total_quota (for bounded keys) inside the
// database, so concurrent callers cannot push the counter past the ceiling.
func (r *Repository) RecordUsage(ctx context.Context, keyID uuid.UUID, chars int) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE api_keys
		SET usage_count = usage_count + 1,
		    characters_used = characters_used + $1,
		    last_used_at = now()
		WHERE id = $2 AND status = 'active'
		  AND (total_quota = 0 OR usage_count < total_quota)
	`, chars, keyID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrQuotaExhausted
	}
	return nil
}

// Revoke marks the key revoked. Idempotent; rows are never deleted so the
// usage ledger keeps a valid reference.
func (r *Repository) Revoke(ctx context.Context, keyID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_keys SET status = 'revoked' WHERE id = $1`, keyID)
	return err
}

// IsNotFound reports whether err means "no matching row".
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
