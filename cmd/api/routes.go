package main

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odiadev/tts-gateway/internal/auth"
	"github.com/odiadev/tts-gateway/internal/dashboard"
	"github.com/odiadev/tts-gateway/internal/handlers"
	"github.com/odiadev/tts-gateway/internal/middleware"
)

// RegisterRoutes adds every endpoint to the given mux.
// /v1/tts authenticates with API keys inside the gateway pipeline;
// dashboard routes use JWT sessions and admin routes a static token.
func RegisterRoutes(
	mux *http.ServeMux,
	pool *pgxpool.Pool,
	tts *handlers.TTSHandler,
	authHandler *auth.Handler,
	authSvc auth.Service,
	dash *dashboard.Handler,
	admin *dashboard.AdminHandler,
	adminToken string,
) {
	// Public
	mux.HandleFunc("POST /v1/tts", tts.Speak)
	mux.HandleFunc("GET /v1/voices", handlers.ListVoices)
	mux.HandleFunc("GET /health", handlers.Health(pool))

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// Dashboard (JWT session)
	session := middleware.SessionAuth(authSvc)
	mux.Handle("GET /api/v1/account/me", session(http.HandlerFunc(dash.GetMe)))
	mux.Handle("GET /api/v1/api-keys", session(http.HandlerFunc(dash.ListAPIKeys)))
	mux.Handle("POST /api/v1/api-keys", session(http.HandlerFunc(dash.CreateAPIKey)))
	mux.Handle("DELETE /api/v1/api-keys/{id}", session(http.HandlerFunc(dash.RevokeAPIKey)))
	mux.Handle("GET /api/v1/usage", session(http.HandlerFunc(dash.GetUsage)))

	// Admin (static token)
	adminOnly := middleware.AdminAuth(adminToken)
	mux.Handle("POST /admin/v1/api-keys", adminOnly(http.HandlerFunc(admin.CreateAPIKey)))
	mux.Handle("DELETE /admin/v1/api-keys/{id}", adminOnly(http.HandlerFunc(admin.RevokeAPIKey)))
	mux.Handle("GET /admin/v1/stats", adminOnly(http.HandlerFunc(admin.Stats)))
}
