// Package gateway orchestrates one synthesis request end to end:
// authenticate, rate-check, quota-check, synthesize, account. Cheap local
// checks always run before provider work, and only work that completed is
// billed — a provider failure never consumes quota.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/odiadev/tts-gateway/internal/keys"
	"github.com/odiadev/tts-gateway/internal/models"
	"github.com/odiadev/tts-gateway/internal/quota"
	"github.com/odiadev/tts-gateway/internal/ratelimit"
	"github.com/odiadev/tts-gateway/internal/synth"
	"github.com/odiadev/tts-gateway/internal/usage"
)

// DefaultProviderTimeout bounds one synthesis call.
const DefaultProviderTimeout = 30 * time.Second

// DefaultMaxTextLength is the input ceiling in characters.
const DefaultMaxTextLength = 1000

// KeyStore is the key surface the gateway needs; *keys.Store satisfies it.
type KeyStore interface {
	Authenticate(ctx context.Context, presented string) (*keys.Identity, error)
	RecordUsage(ctx context.Context, keyID uuid.UUID, chars int) error
	HashSecret(secret string) string
}

// UserAccounts updates per-user monthly character counters.
type UserAccounts interface {
	AddMonthlyChars(ctx context.Context, id uuid.UUID, chars int, now time.Time) error
}

type Service struct {
	keys     KeyStore
	users    UserAccounts
	limiter  ratelimit.Limiter
	ledger   usage.Service
	provider synth.Provider

	timeout time.Duration
	maxText int
	log     *slog.Logger
	now     func() time.Time
}

func NewService(ks KeyStore, users UserAccounts, limiter ratelimit.Limiter, ledger usage.Service, provider synth.Provider, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		keys:     ks,
		users:    users,
		limiter:  limiter,
		ledger:   ledger,
		provider: provider,
		timeout:  DefaultProviderTimeout,
		maxText:  DefaultMaxTextLength,
		log:      log,
		now:      time.Now,
	}
}

// SetProviderTimeout overrides the synthesis deadline (startup wiring only).
func (s *Service) SetProviderTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

type SpeakRequest struct {
	Text     string
	VoiceID  string
	Endpoint string
	ClientIP string
}

type SpeakResult struct {
	Audio          *synth.Audio
	Voice          models.Voice
	CharacterCount int
	LatencyMs      int
}

// Speak runs the full request pipeline for a presented API key secret.
// Ordering is the contract: auth, then rate, then quota, then the provider,
// then accounting. Every outcome, including rejections, lands in the ledger.
func (s *Service) Speak(ctx context.Context, presentedSecret string, req SpeakRequest) (*SpeakResult, error) {
	start := s.now()

	id, err := s.keys.Authenticate(ctx, presentedSecret)
	if err != nil {
		return nil, err
	}
	if id == nil {
		// Audit failed attempts under the hash of whatever was presented,
		// so repeats of the same bad credential correlate in the ledger.
		s.appendLedger(ctx, nil, s.keys.HashSecret(presentedSecret), req, 0, models.UsageStatusError, "invalid api key", start)
		return nil, ErrUnauthorized
	}

	text := strings.TrimSpace(req.Text)
	chars := utf8.RuneCountInString(text)

	voice, verr := s.validate(id, text, req.VoiceID)
	if verr != nil {
		s.appendLedger(ctx, id, "", req, chars, models.UsageStatusError, verr.Error(), start)
		return nil, verr
	}

	allowed, err := s.limiter.Allow(ctx, &id.Key)
	if err != nil {
		s.log.Error("rate limit check failed", "key_id", id.Key.ID, "error", err)
		s.appendLedger(ctx, id, "", req, chars, models.UsageStatusError, "rate limit check failed", start)
		return nil, err
	}
	if !allowed {
		s.appendLedger(ctx, id, "", req, chars, models.UsageStatusRateLimited, "", start)
		return nil, &RateLimitError{Limit: id.Key.RateLimitPerMinute}
	}

	if !quota.AllowRequest(&id.Key) {
		s.appendLedger(ctx, id, "", req, chars, models.UsageStatusQuotaExceeded, "", start)
		return nil, &QuotaError{Kind: QuotaRequests, Limit: id.Key.TotalQuota, Used: id.Key.UsageCount}
	}
	plan := models.PlanByName(id.User.Plan)
	if !quota.AllowCharacters(&id.User, plan, chars, start) {
		s.appendLedger(ctx, id, "", req, chars, models.UsageStatusQuotaExceeded, "", start)
		return nil, &QuotaError{Kind: QuotaCharacters, Limit: plan.MonthlyCharacters, Used: quota.MonthCharsUsed(&id.User, start)}
	}

	// All checks done; nothing below holds store state across the provider
	// call. The deadline turns a hung upstream into an ordinary failure.
	provCtx, cancel := context.WithTimeout(ctx, s.timeout)
	audio, perr := s.provider.Synthesize(provCtx, text, voice.UpstreamVoice)
	cancel()
	if perr != nil {
		s.log.Error("synthesis failed", "key_id", id.Key.ID, "voice", voice.ID, "error", perr)
		s.appendLedger(ctx, id, "", req, chars, models.UsageStatusError, perr.Error(), start)
		return nil, &ProviderError{Err: perr}
	}

	// Bill only completed work. The guarded increment can still lose the
	// race to a concurrent request on a bounded key; that request is then
	// rejected rather than letting the counter pass the ceiling.
	if err := s.keys.RecordUsage(ctx, id.Key.ID, chars); err != nil {
		if errors.Is(err, keys.ErrQuotaExhausted) {
			s.appendLedger(ctx, id, "", req, chars, models.UsageStatusQuotaExceeded, "", start)
			return nil, &QuotaError{Kind: QuotaRequests, Limit: id.Key.TotalQuota, Used: id.Key.TotalQuota}
		}
		s.log.Error("usage accounting failed", "key_id", id.Key.ID, "error", err)
		s.appendLedger(ctx, id, "", req, chars, models.UsageStatusError, "usage accounting failed", start)
		return nil, err
	}
	if err := s.users.AddMonthlyChars(ctx, id.User.ID, chars, start); err != nil {
		s.log.Error("monthly character accounting failed", "user_id", id.User.ID, "error", err)
	}
	s.appendLedger(ctx, id, "", req, chars, models.UsageStatusOK, "", start)

	return &SpeakResult{
		Audio:          audio,
		Voice:          voice,
		CharacterCount: chars,
		LatencyMs:      s.elapsedMs(start),
	}, nil
}

// validate applies the request checks that need no storage: text presence and
// length, voice existence, premium entitlement.
func (s *Service) validate(id *keys.Identity, text, voiceID string) (models.Voice, error) {
	if text == "" {
		return models.Voice{}, ErrTextRequired
	}
	// Length is counted in characters, not bytes: non-ASCII text is billed
	// and limited the same way the request schema measures it.
	if n := utf8.RuneCountInString(text); n > s.maxText {
		return models.Voice{}, &TextTooLongError{Length: n, Max: s.maxText}
	}
	voice, ok := models.VoiceByID(voiceID)
	if !ok {
		return models.Voice{}, ErrUnknownVoice
	}
	if voice.Premium && !models.PlanByName(id.User.Plan).PremiumVoices {
		return models.Voice{}, ErrPremiumVoice
	}
	return voice, nil
}

// appendLedger records one outcome. presentedHash is only consulted when
// there is no authenticated identity to take the key hash from.
func (s *Service) appendLedger(ctx context.Context, id *keys.Identity, presentedHash string, req SpeakRequest, chars int, status, errMsg string, start time.Time) {
	rec := &models.UsageRecord{
		ID:             uuid.New(),
		KeyHash:        presentedHash,
		Endpoint:       req.Endpoint,
		VoiceID:        req.VoiceID,
		CharacterCount: chars,
		Status:         status,
		ErrorMessage:   errMsg,
		LatencyMs:      s.elapsedMs(start),
		ClientIP:       req.ClientIP,
	}
	if id != nil {
		keyID, userID := id.Key.ID, id.User.ID
		rec.KeyID = &keyID
		rec.UserID = &userID
		rec.KeyHash = id.Key.KeyHash
	}
	if err := s.ledger.Append(ctx, rec); err != nil {
		s.log.Error("usage ledger append failed", "status", status, "error", err)
	}
}

func (s *Service) elapsedMs(start time.Time) int {
	return int(s.now().Sub(start) / time.Millisecond)
}
