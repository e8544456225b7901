package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odiadev/tts-gateway/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Append inserts one usage record. There is no update or delete: the ledger
// is the audit trail for every outcome, including rejections.
func (r *Repository) Append(ctx context.Context, rec *models.UsageRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO usage_records (id, key_id, key_hash, user_id, endpoint, voice_id,
		                           character_count, status, error_message, latency_ms, client_ip)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, rec.ID, rec.KeyID, rec.KeyHash, rec.UserID, rec.Endpoint, rec.VoiceID,
		rec.CharacterCount, rec.Status, rec.ErrorMessage, rec.LatencyMs, rec.ClientIP)
	return err
}

// CountForKeySince counts accounted (status = ok) records for the key with
// created_at >= since. Rate limiting uses this as its rolling window.
func (r *Repository) CountForKeySince(ctx context.Context, keyID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM usage_records
		WHERE key_id = $1 AND status = 'ok' AND created_at >= $2
	`, keyID, since).Scan(&n)
	return n, err
}

// Summary is a read-only aggregate over the ledger.
type Summary struct {
	TotalRequests   int64            `json:"total_requests"`
	TotalCharacters int64            `json:"total_characters"`
	ByStatus        map[string]int64 `json:"by_status"`
}

// Summarize aggregates the ledger, optionally scoped to one user
// (userID == uuid.Nil means service-wide).
func (r *Repository) Summarize(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	q := `
		SELECT status, COUNT(*), COALESCE(SUM(CASE WHEN status = 'ok' THEN character_count ELSE 0 END), 0)
		FROM usage_records
	`
	args := []any{}
	if userID != uuid.Nil {
		q += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	q += ` GROUP BY status`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := &Summary{ByStatus: make(map[string]int64)}
	for rows.Next() {
		var status string
		var count, chars int64
		if err := rows.Scan(&status, &count, &chars); err != nil {
			return nil, err
		}
		out.ByStatus[status] = count
		out.TotalRequests += count
		out.TotalCharacters += chars
	}
	return out, rows.Err()
}

// VoiceCount is one row of the top-voices report.
type VoiceCount struct {
	VoiceID string `json:"voice_id"`
	Count   int64  `json:"count"`
}

// TopVoices returns the most used voices among successful requests.
func (r *Repository) TopVoices(ctx context.Context, limit int) ([]VoiceCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT voice_id, COUNT(*) AS n FROM usage_records
		WHERE status = 'ok' AND voice_id <> ''
		GROUP BY voice_id ORDER BY n DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []VoiceCount
	for rows.Next() {
		var vc VoiceCount
		if err := rows.Scan(&vc.VoiceID, &vc.Count); err != nil {
			return nil, err
		}
		out = append(out, vc)
	}
	if out == nil {
		out = []VoiceCount{}
	}
	return out, rows.Err()
}

// RollupDay upserts one row of daily_stats for the given UTC day from the
// ledger. Called by the reporting worker; safe to re-run for the same day.
func (r *Repository) RollupDay(ctx context.Context, day time.Time) error {
	dayStart := time.Date(day.UTC().Year(), day.UTC().Month(), day.UTC().Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO daily_stats (day, total_requests, total_characters, unique_users)
		SELECT $1::date,
		       COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'ok' THEN character_count ELSE 0 END), 0),
		       COUNT(DISTINCT user_id)
		FROM usage_records
		WHERE created_at >= $2 AND created_at < $3
		ON CONFLICT (day) DO UPDATE SET
		    total_requests = EXCLUDED.total_requests,
		    total_characters = EXCLUDED.total_characters,
		    unique_users = EXCLUDED.unique_users
	`, dayStart.Format("2006-01-02"), dayStart, dayEnd)
	return err
}
