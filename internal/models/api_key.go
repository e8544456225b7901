package models

import (
	"time"

	"github.com/google/uuid"
)

// API key status enums.
const (
	KeyStatusActive  = "active"
	KeyStatusRevoked = "revoked"
)

type APIKey struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	Name               string     `json:"name"`
	KeyHash            string     `json:"-"`
	KeyPrefix          string     `json:"key_prefix"`
	RateLimitPerMinute int        `json:"rate_limit_per_minute"`
	TotalQuota         int64      `json:"total_quota"`
	UsageCount         int64      `json:"usage_count"`
	CharactersUsed     int64      `json:"characters_used"`
	Status             string     `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
	LastUsedAt         *time.Time `json:"last_used_at,omitempty"`
}

// Active reports whether the key can authenticate requests.
func (k *APIKey) Active() bool { return k.Status == KeyStatusActive }
