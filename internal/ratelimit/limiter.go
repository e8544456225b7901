package ratelimit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/odiadev/tts-gateway/internal/models"
)

// Window is the rolling interval a key's rate limit applies to.
const Window = time.Minute

// Limiter decides whether a key may make another accounted request now.
type Limiter interface {
	Allow(ctx context.Context, key *models.APIKey) (bool, error)
}

// windowCounter is the ledger query the limiter needs.
type windowCounter interface {
	CountForKeySince(ctx context.Context, keyID uuid.UUID, since time.Time) (int, error)
}

// LedgerLimiter counts the key's accounted requests in the trailing window
// straight from the usage ledger. The window is soft: a burst straddling a
// boundary can briefly reach twice the limit, which the contract tolerates.
type LedgerLimiter struct {
	counts windowCounter
	now    func() time.Time
}

func NewLedgerLimiter(counts windowCounter) *LedgerLimiter {
	return &LedgerLimiter{counts: counts, now: time.Now}
}

var _ Limiter = (*LedgerLimiter)(nil)

// Allow reports whether the key is under its per-minute limit. A ledger
// error fails closed: better to reject one request than to let an outage
// turn off rate limiting.
func (l *LedgerLimiter) Allow(ctx context.Context, key *models.APIKey) (bool, error) {
	n, err := l.counts.CountForKeySince(ctx, key.ID, l.now().Add(-Window))
	if err != nil {
		return false, err
	}
	return n < key.RateLimitPerMinute, nil
}
