package gateway

import (
	"errors"
	"fmt"
)

// Enforcement failures are resolved before any provider work and map 1:1 to
// HTTP statuses at the transport layer.
var (
	ErrUnauthorized = errors.New("invalid api key")
	ErrTextRequired = errors.New("text is required")
	ErrUnknownVoice = errors.New("unknown voice")
	ErrPremiumVoice = errors.New("premium voice requires a paid subscription")
)

// TextTooLongError reports input over the configured ceiling.
type TextTooLongError struct {
	Length int
	Max    int
}

func (e *TextTooLongError) Error() string {
	return fmt.Sprintf("text too long: %d characters (max %d)", e.Length, e.Max)
}

// RateLimitError carries the configured limit so callers can back off.
type RateLimitError struct {
	Limit int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests per minute", e.Limit)
}

// Quota kinds.
const (
	QuotaRequests   = "requests"
	QuotaCharacters = "characters"
)

// QuotaError carries the ceiling and current usage for the exhausted dimension.
type QuotaError struct {
	Kind  string
	Limit int64
	Used  int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s quota exceeded: %d of %d used", e.Kind, e.Used, e.Limit)
}

// ProviderError wraps a synthesis failure or timeout. The cause is logged for
// operators but never forwarded to API callers.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string { return "synthesis failed: " + e.Err.Error() }
func (e *ProviderError) Unwrap() error { return e.Err }
