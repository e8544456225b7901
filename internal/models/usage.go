package models

import (
	"time"

	"github.com/google/uuid"
)

// Usage record status enums. Every request outcome lands in exactly one.
const (
	UsageStatusOK            = "ok"
	UsageStatusRateLimited   = "rate_limited"
	UsageStatusQuotaExceeded = "quota_exceeded"
	UsageStatusError         = "error"
)

// UsageRecord is one append-only row in the request ledger. Rows are never
// updated or deleted; retention is an operational concern outside the core.
type UsageRecord struct {
	ID             uuid.UUID  `json:"id"`
	KeyID          *uuid.UUID `json:"key_id,omitempty"`
	KeyHash        string     `json:"-"`
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	Endpoint       string     `json:"endpoint"`
	VoiceID        string     `json:"voice_id,omitempty"`
	CharacterCount int        `json:"character_count"`
	Status         string     `json:"status"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	LatencyMs      int        `json:"latency_ms"`
	ClientIP       string     `json:"client_ip,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// DailyStat is one rolled-up day produced by the reporting worker.
type DailyStat struct {
	Day             string `json:"day"` // YYYY-MM-DD
	TotalRequests   int64  `json:"total_requests"`
	TotalCharacters int64  `json:"total_characters"`
	UniqueUsers     int64  `json:"unique_users"`
}
