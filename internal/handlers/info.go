package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odiadev/tts-gateway/internal/models"
)

// ListVoices handles GET /v1/voices: the public catalog plus plan table.
func ListVoices(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"voices":      models.Voices,
		"total_count": len(models.Voices),
		"plans":       models.Plans,
	})
}

// Health returns a liveness handler that also pings the database.
func Health(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		db := "connected"
		status := http.StatusOK
		if err := pool.Ping(ctx); err != nil {
			db = "unreachable"
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"database":  db,
			"voices":    len(models.Voices),
			"plans":     len(models.Plans),
		})
	}
}
