package dashboard

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/odiadev/tts-gateway/internal/auth"
	"github.com/odiadev/tts-gateway/internal/models"
	"github.com/odiadev/tts-gateway/internal/usage"
)

// AdminHandler serves the operator surface. Routes are guarded by
// middleware.AdminAuth; no per-user scoping applies here.
type AdminHandler struct {
	authSvc auth.Service
	keys    KeyManager
	ledger  usage.Service
	log     *slog.Logger
}

func NewAdminHandler(authSvc auth.Service, keys KeyManager, ledger usage.Service, log *slog.Logger) *AdminHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AdminHandler{authSvc: authSvc, keys: keys, ledger: ledger, log: log}
}

// POST /admin/v1/api-keys — mint a key for any user.
func (h *AdminHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID             uuid.UUID `json:"user_id"`
		Name               string    `json:"name"`
		RateLimitPerMinute *int      `json:"rate_limit_per_minute"`
		TotalQuota         *int64    `json:"total_quota"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if body.UserID == uuid.Nil {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	u, err := h.authSvc.GetUser(r.Context(), body.UserID)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
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

	k, secret, err := h.keys.Create(r.Context(), body.UserID, body.Name, rate, totalQuota)
	if err != nil {
		h.log.Error("admin create api key failed", "user_id", body.UserID, "error", err)
		http.Error(w, "create failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":                    k.ID,
		"user_id":               k.UserID,
		"name":                  k.Name,
		"key_prefix":            k.KeyPrefix,
		"rate_limit_per_minute": k.RateLimitPerMinute,
		"total_quota":           k.TotalQuota,
		"api_key":               secret,
	})
}

// DELETE /admin/v1/api-keys/{id}
func (h *AdminHandler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	keyID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid key ID", http.StatusBadRequest)
		return
	}
	if err := h.keys.Revoke(r.Context(), keyID); err != nil {
		h.log.Error("admin revoke failed", "key_id", keyID, "error", err)
		http.Error(w, "revoke failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /admin/v1/stats — service-wide ledger aggregates.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ledger.Summarize(r.Context(), uuid.Nil)
	if err != nil {
		h.log.Error("stats summary failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	top, err := h.ledger.TopVoices(r.Context(), 5)
	if err != nil {
		h.log.Error("top voices failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":    summary,
		"top_voices": top,
	})
}
