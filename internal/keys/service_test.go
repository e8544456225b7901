package keys

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odiadev/tts-gateway/internal/models"
)

// ---------------------------------------------------------------------------
// In-memory repository mock
// ---------------------------------------------------------------------------

type memRepo struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*models.APIKey
	byHash map[string]uuid.UUID
	users  map[uuid.UUID]*models.User

	// failCreates makes the next n Create calls fail with a unique violation.
	failCreates int
}

func newMemRepo() *memRepo {
	return &memRepo{
		byID:   make(map[uuid.UUID]*models.APIKey),
		byHash: make(map[string]uuid.UUID),
		users:  make(map[uuid.UUID]*models.User),
	}
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "api_keys_key_hash_key"}
}

func (m *memRepo) Create(_ context.Context, k *models.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreates > 0 {
		m.failCreates--
		return uniqueViolation()
	}
	if _, dup := m.byHash[k.KeyHash]; dup {
		return uniqueViolation()
	}
	cp := *k
	m.byID[k.ID] = &cp
	m.byHash[k.KeyHash] = k.ID
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*models.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *k
	return &cp, nil
}

func (m *memRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]*models.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.APIKey
	for _, k := range m.byID {
		if k.UserID == userID {
			cp := *k
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRepo) FindByKeyHash(_ context.Context, keyHash string) (*KeyWithUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byHash[keyHash]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	k := m.byID[id]
	if k.Status != models.KeyStatusActive {
		return nil, pgx.ErrNoRows
	}
	out := &KeyWithUser{APIKey: *k}
	if u, ok := m.users[k.UserID]; ok {
		out.User = *u
	}
	return out, nil
}

func (m *memRepo) RecordUsage(_ context.Context, keyID uuid.UUID, chars int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.byID[keyID]
	if !ok || k.Status != models.KeyStatusActive {
		return ErrQuotaExhausted
	}
	if k.TotalQuota > 0 && k.UsageCount >= k.TotalQuota {
		return ErrQuotaExhausted
	}
	k.UsageCount++
	k.CharactersUsed += int64(chars)
	return nil
}

func (m *memRepo) Revoke(_ context.Context, keyID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k, ok := m.byID[keyID]; ok {
		k.Status = models.KeyStatusRevoked
	}
	return nil
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCreateAndAuthenticate(t *testing.T) {
	repo := newMemRepo()
	store := NewStore(repo, "test-pepper")
	userID := uuid.New()
	repo.users[userID] = &models.User{ID: userID, Email: "owner@example.com", Plan: models.PlanFree}

	k, secret, err := store.Create(context.Background(), userID, "ci key", 60, 100)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(secret, "odia_") {
		t.Errorf("secret %q missing odia_ prefix", secret)
	}
	if k.KeyHash == secret || strings.Contains(k.KeyHash, secret) {
		t.Error("plaintext secret leaked into stored hash")
	}
	if k.KeyPrefix != secret[:12] {
		t.Errorf("key prefix %q does not match secret", k.KeyPrefix)
	}

	id, err := store.Authenticate(context.Background(), secret)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id == nil || id.Key.ID != k.ID {
		t.Fatalf("expected identity for created key, got %+v", id)
	}
	if id.User.Email != "owner@example.com" {
		t.Errorf("expected joined user, got %+v", id.User)
	}
}

func TestCreateClampsLimits(t *testing.T) {
	repo := newMemRepo()
	store := NewStore(repo, "pepper")

	cases := []struct {
		name      string
		rate      int
		quota     int64
		wantRate  int
		wantQuota int64
	}{
		{"zero rate floors to one", 0, 10, 1, 10},
		{"negative quota clamps to unlimited", 60, -5, 60, 0},
		{"rate capped at maximum", 100_000, 0, MaxRateLimitPerMinute, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			k, _, err := store.Create(context.Background(), uuid.New(), "k", tc.rate, tc.quota)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if k.RateLimitPerMinute != tc.wantRate {
				t.Errorf("rate = %d, want %d", k.RateLimitPerMinute, tc.wantRate)
			}
			if k.TotalQuota != tc.wantQuota {
				t.Errorf("quota = %d, want %d", k.TotalQuota, tc.wantQuota)
			}
		})
	}
}

func TestCreateRetriesOnCollision(t *testing.T) {
	repo := newMemRepo()
	repo.failCreates = 1
	store := NewStore(repo, "pepper")

	k, _, err := store.Create(context.Background(), uuid.New(), "k", 60, 0)
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if k == nil {
		t.Fatal("expected key after retry")
	}

	repo.failCreates = 2
	if _, _, err := store.Create(context.Background(), uuid.New(), "k2", 60, 0); err != ErrKeyCollision {
		t.Fatalf("expected ErrKeyCollision after two collisions, got %v", err)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	repo := newMemRepo()
	store := NewStore(repo, "pepper")
	userID := uuid.New()
	repo.users[userID] = &models.User{ID: userID}

	k, secret, err := store.Create(context.Background(), userID, "k", 60, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Revoke(context.Background(), k.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	// Unknown, malformed, and revoked secrets must be indistinguishable.
	for _, presented := range []string{
		"odia_" + strings.Repeat("ab", 32), // well-formed but unknown
		"not-a-key",
		"",
		secret, // valid secret of a revoked key
	} {
		id, err := store.Authenticate(context.Background(), presented)
		if err != nil {
			t.Errorf("authenticate(%q): unexpected error %v", presented, err)
		}
		if id != nil {
			t.Errorf("authenticate(%q): expected nil identity, got %+v", presented, id)
		}
	}
}

func TestRevokeIdempotent(t *testing.T) {
	repo := newMemRepo()
	store := NewStore(repo, "pepper")
	k, _, err := store.Create(context.Background(), uuid.New(), "k", 60, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := store.Revoke(context.Background(), k.ID); err != nil {
			t.Fatalf("revoke #%d: %v", i+1, err)
		}
	}
	got, err := store.GetByID(context.Background(), k.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.KeyStatusRevoked {
		t.Errorf("status = %q, want revoked", got.Status)
	}
}

func TestRecordUsageStopsAtQuota(t *testing.T) {
	repo := newMemRepo()
	store := NewStore(repo, "pepper")
	k, _, err := store.Create(context.Background(), uuid.New(), "k", 60, 3)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := store.RecordUsage(context.Background(), k.ID, 10); err != nil {
			t.Fatalf("record #%d: %v", i+1, err)
		}
	}
	if err := store.RecordUsage(context.Background(), k.ID, 10); err != ErrQuotaExhausted {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
	got, _ := store.GetByID(context.Background(), k.ID)
	if got.UsageCount != 3 {
		t.Errorf("usage_count = %d, want exactly 3", got.UsageCount)
	}
}

func TestRecordUsageConcurrent(t *testing.T) {
	repo := newMemRepo()
	store := NewStore(repo, "pepper")
	k, _, err := store.Create(context.Background(), uuid.New(), "k", 60, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.RecordUsage(context.Background(), k.ID, 5); err != nil {
				t.Errorf("record usage: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := store.GetByID(context.Background(), k.ID)
	if got.UsageCount != n {
		t.Errorf("usage_count = %d after %d parallel calls, want %d (lost updates)", got.UsageCount, n, n)
	}
	if got.CharactersUsed != n*5 {
		t.Errorf("characters_used = %d, want %d", got.CharactersUsed, n*5)
	}
}
