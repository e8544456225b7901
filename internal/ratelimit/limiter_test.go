package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/odiadev/tts-gateway/internal/models"
)

type stubCounter struct {
	count     int
	err       error
	lastSince time.Time
}

func (s *stubCounter) CountForKeySince(_ context.Context, _ uuid.UUID, since time.Time) (int, error) {
	s.lastSince = since
	return s.count, s.err
}

func key(limit int) *models.APIKey {
	return &models.APIKey{ID: uuid.New(), RateLimitPerMinute: limit}
}

func TestAllowUnderLimit(t *testing.T) {
	cases := []struct {
		name  string
		count int
		limit int
		want  bool
	}{
		{"well under", 0, 20, true},
		{"one below", 19, 20, true},
		{"at limit", 20, 20, false},
		{"over limit", 25, 20, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLedgerLimiter(&stubCounter{count: tc.count})
			got, err := l.Allow(context.Background(), key(tc.limit))
			if err != nil {
				t.Fatalf("allow: %v", err)
			}
			if got != tc.want {
				t.Errorf("allow with %d/%d = %v, want %v", tc.count, tc.limit, got, tc.want)
			}
		})
	}
}

func TestAllowQueriesTrailingMinute(t *testing.T) {
	counter := &stubCounter{}
	l := NewLedgerLimiter(counter)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	if _, err := l.Allow(context.Background(), key(10)); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if want := fixed.Add(-time.Minute); !counter.lastSince.Equal(want) {
		t.Errorf("window start = %v, want %v", counter.lastSince, want)
	}
}

func TestAllowFailsClosed(t *testing.T) {
	l := NewLedgerLimiter(&stubCounter{err: errors.New("ledger down")})
	got, err := l.Allow(context.Background(), key(10))
	if err == nil {
		t.Fatal("expected error to propagate")
	}
	if got {
		t.Error("limiter must fail closed on ledger errors")
	}
}
