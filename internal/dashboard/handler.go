package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/odiadev/tts-gateway/internal/auth"
	"github.com/odiadev/tts-gateway/internal/middleware"
	"github.com/odiadev/tts-gateway/internal/models"
	"github.com/odiadev/tts-gateway/internal/quota"
	"github.com/odiadev/tts-gateway/internal/usage"
)

// KeyManager is the key surface the dashboard needs; *keys.Store satisfies it.
type KeyManager interface {
	Create(ctx context.Context, userID uuid.UUID, name string, rateLimitPerMinute int, totalQuota int64) (*models.APIKey, string, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error)
	Revoke(ctx context.Context, keyID uuid.UUID) error
}

type Handler struct {
	authSvc auth.Service
	keys    KeyManager
	ledger  usage.Service
	log     *slog.Logger
}

func NewHandler(authSvc auth.Service, keys KeyManager, ledger usage.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{authSvc: authSvc, keys: keys, ledger: ledger, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /api/v1/account/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromCtx(r.Context())
	u, err := h.authSvc.GetUser(r.Context(), userID)
	if err != nil {
		h.log.Error("get user failed", "user_id", userID, "error", err)
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}
	plan := models.PlanByName(u.Plan)
	now := time.Now()
	writeJSON(w, http.StatusOK, map[string]any{
		"id":                 u.ID,
		"email":              u.Email,
		"name":               u.Name,
		"plan":               u.Plan,
		"monthly_characters": plan.MonthlyCharacters,
		"chars_used_month":   quota.MonthCharsUsed(u, now),
		"month":              models.MonthKey(now),
		"created_at":         u.CreatedAt,
	})
}

// GET /api/v1/api-keys
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromCtx(r.Context())
	list, err := h.keys.ListByUser(r.Context(), userID)
	if err != nil {
		h.log.Error("list api keys failed", "user_id", userID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /api/v1/api-keys
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromCtx(r.Context())
	u, err := h.authSvc.GetUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}

	var body struct {
		Name               string `json:"name"`
		RateLimitPerMinute *int   `json:"rate_limit_per_minute"`
		TotalQuota         *int64 `json:"total_quota"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if body.Name == "" {
		body.Name = u.Name + "'s API Key"
	}
	plan := models.PlanByName(u.Plan)
	rate := plan.RateLimitPerMinute
	if body.RateLimitPerMinute != nil {
		rate = *body.RateLimitPerMinute
	}
	var totalQuota int64
	if body.TotalQuota != nil {
		totalQuota = *body.TotalQuota
	}

	k, secret, err := h.keys.Create(r.Context(), userID, body.Name, rate, totalQuota)
	if err != nil {
		h.log.Error("create api key failed", "user_id", userID, "error", err)
		http.Error(w, "create failed", http.StatusInternalServerError)
		return
	}
	// The plaintext secret appears in this response and nowhere else.
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":                    k.ID,
		"name":                  k.Name,
		"key_prefix":            k.KeyPrefix,
		"rate_limit_per_minute": k.RateLimitPerMinute,
		"total_quota":           k.TotalQuota,
		"status":                k.Status,
		"api_key":               secret,
	})
}

// DELETE /api/v1/api-keys/{id} — revokes, never deletes.
func (h *Handler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromCtx(r.Context())
	keyID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid key ID", http.StatusBadRequest)
		return
	}
	k, err := h.keys.GetByID(r.Context(), keyID)
	if err != nil || k.UserID != userID {
		// Someone else's key and a nonexistent key look the same.
		http.Error(w, "key not found", http.StatusNotFound)
		return
	}
	if err := h.keys.Revoke(r.Context(), keyID); err != nil {
		h.log.Error("revoke api key failed", "key_id", keyID, "error", err)
		http.Error(w, "revoke failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/usage
func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromCtx(r.Context())
	summary, err := h.ledger.Summarize(r.Context(), userID)
	if err != nil {
		h.log.Error("usage summary failed", "user_id", userID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
