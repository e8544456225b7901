package keys

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odiadev/tts-gateway/internal/models"
)

const (
	// secretPrefix marks every issued key; anything else is rejected before hashing.
	secretPrefix = "odia_"
	secretBytes  = 32
	prefixLen    = 12

	// MaxRateLimitPerMinute caps the per-key rate limit at creation.
	MaxRateLimitPerMinute = 600
)

// ErrKeyCollision means a freshly generated secret hashed to an existing
// key_hash twice in a row. With 32 random bytes this is effectively
// unreachable; it is never surfaced to API callers as a user error.
var ErrKeyCollision = errors.New("api key hash collision")

// Identity is an authenticated key plus its owning user.
type Identity struct {
	Key  models.APIKey
	User models.User
}

// repository is the storage surface Store needs; *Repository satisfies it.
type repository interface {
	Create(ctx context.Context, k *models.APIKey) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error)
	FindByKeyHash(ctx context.Context, keyHash string) (*KeyWithUser, error)
	RecordUsage(ctx context.Context, keyID uuid.UUID, chars int) error
	Revoke(ctx context.Context, keyID uuid.UUID) error
}

// Store issues, authenticates, and accounts API keys. Secrets are hashed
// with HMAC-SHA256 under a server-side pepper before touching the database,
// so a database dump alone cannot yield usable keys.
type Store struct {
	repo   repository
	pepper []byte
}

func NewStore(repo repository, pepper string) *Store {
	return &Store{repo: repo, pepper: []byte(pepper)}
}

// Create mints a new key for the user and returns the record together with
// the plaintext secret. The secret is shown exactly once; only its hash is
// stored. Limits are clamped to sane bounds before insert.
func (s *Store) Create(ctx context.Context, userID uuid.UUID, name string, rateLimitPerMinute int, totalQuota int64) (*models.APIKey, string, error) {
	if rateLimitPerMinute < 1 {
		rateLimitPerMinute = 1
	}
	if rateLimitPerMinute > MaxRateLimitPerMinute {
		rateLimitPerMinute = MaxRateLimitPerMinute
	}
	if totalQuota < 0 {
		totalQuota = 0
	}

	// One retry on hash collision; a second collision is reported as-is.
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		secret, err := generateSecret()
		if err != nil {
			return nil, "", err
		}
		k := &models.APIKey{
			ID:                 uuid.New(),
			UserID:             userID,
			Name:               name,
			KeyHash:            s.HashSecret(secret),
			KeyPrefix:          secret[:prefixLen],
			RateLimitPerMinute: rateLimitPerMinute,
			TotalQuota:         totalQuota,
			Status:             models.KeyStatusActive,
		}
		if err := s.repo.Create(ctx, k); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				lastErr = ErrKeyCollision
				continue
			}
			return nil, "", err
		}
		return k, secret, nil
	}
	return nil, "", lastErr
}

// Authenticate resolves a presented secret to its key and user. It returns
// (nil, nil) for malformed, unknown, and revoked secrets alike — the caller
// learns nothing beyond "no active key matches".
func (s *Store) Authenticate(ctx context.Context, presented string) (*Identity, error) {
	if !strings.HasPrefix(presented, secretPrefix) {
		return nil, nil
	}
	row, err := s.repo.FindByKeyHash(ctx, s.HashSecret(presented))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find key by hash: %w", err)
	}
	return &Identity{Key: row.APIKey, User: row.User}, nil
}

// RecordUsage accounts one successful request against the key: usage_count+1,
// characters_used+chars, last_used_at stamped. Returns ErrQuotaExhausted when
// the increment would cross total_quota; the counters stay untouched then.
func (s *Store) RecordUsage(ctx context.Context, keyID uuid.UUID, chars int) error {
	return s.repo.RecordUsage(ctx, keyID, chars)
}

// Revoke permanently disables the key. Idempotent.
func (s *Store) Revoke(ctx context.Context, keyID uuid.UUID) error {
	return s.repo.Revoke(ctx, keyID)
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Store) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// HashSecret computes the stored hash of a plaintext secret:
// hex(HMAC-SHA256(pepper, secret)).
func (s *Store) HashSecret(secret string) string {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

func generateSecret() (string, error) {
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate key material: %w", err)
	}
	return secretPrefix + hex.EncodeToString(raw), nil
}
