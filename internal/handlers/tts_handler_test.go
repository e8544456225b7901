package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/odiadev/tts-gateway/internal/gateway"
	"github.com/odiadev/tts-gateway/internal/models"
	"github.com/odiadev/tts-gateway/internal/synth"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type stubSpeaker struct {
	res     *gateway.SpeakResult
	err     error
	lastReq gateway.SpeakRequest
}

func (s *stubSpeaker) Speak(_ context.Context, _ string, req gateway.SpeakRequest) (*gateway.SpeakResult, error) {
	s.lastReq = req
	return s.res, s.err
}

func newHandler(t *testing.T, s Speaker) *TTSHandler {
	t.Helper()
	h, err := NewTTSHandler(s, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return h
}

func doSpeak(h *TTSHandler, authHeader, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/tts", strings.NewReader(body))
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Speak(rec, req)
	return rec
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestSpeakHandlerSuccess(t *testing.T) {
	voice := models.Voices["lexi_whatsapp"]
	s := &stubSpeaker{res: &gateway.SpeakResult{
		Audio:          &synth.Audio{Bytes: []byte("mp3-bytes"), ContentType: "audio/mpeg"},
		Voice:          voice,
		CharacterCount: 5,
		LatencyMs:      42,
	}}
	h := newHandler(t, s)

	rec := doSpeak(h, "Bearer odia_abc", `{"text":"hello","voice_id":"lexi_whatsapp"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/mpeg" {
		t.Errorf("content type = %q", got)
	}
	if got := rec.Header().Get("X-Voice-ID"); got != "lexi_whatsapp" {
		t.Errorf("X-Voice-ID = %q", got)
	}
	if got := rec.Header().Get("X-Character-Count"); got != "5" {
		t.Errorf("X-Character-Count = %q", got)
	}
	if rec.Body.String() != "mp3-bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if s.lastReq.Endpoint != "/v1/tts" {
		t.Errorf("endpoint passed = %q", s.lastReq.Endpoint)
	}
}

func TestSpeakHandlerDefaultsVoice(t *testing.T) {
	s := &stubSpeaker{res: &gateway.SpeakResult{
		Audio: &synth.Audio{Bytes: []byte("x"), ContentType: "audio/wav"},
		Voice: models.Voices["lexi_whatsapp"],
	}}
	h := newHandler(t, s)

	doSpeak(h, "Bearer odia_abc", `{"text":"hello"}`)
	if s.lastReq.VoiceID != "lexi_whatsapp" {
		t.Errorf("default voice = %q, want lexi_whatsapp", s.lastReq.VoiceID)
	}
}

func TestSpeakHandlerRejectsBadBodies(t *testing.T) {
	h := newHandler(t, &stubSpeaker{})

	cases := []struct {
		name string
		body string
	}{
		{"not json", "not json"},
		{"missing text", `{"voice_id":"lexi_whatsapp"}`},
		{"empty text", `{"text":""}`},
		{"unknown field", `{"text":"hi","volume":11}`},
		{"text over schema max", `{"text":"` + strings.Repeat("a", 1001) + `"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doSpeak(h, "Bearer odia_abc", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSpeakHandlerMissingAuth(t *testing.T) {
	h := newHandler(t, &stubSpeaker{})
	rec := doSpeak(h, "", `{"text":"hello"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestSpeakHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"invalid key", gateway.ErrUnauthorized, http.StatusUnauthorized},
		{"rate limited", &gateway.RateLimitError{Limit: 20}, http.StatusTooManyRequests},
		{"request quota", &gateway.QuotaError{Kind: gateway.QuotaRequests, Limit: 10, Used: 10}, http.StatusPaymentRequired},
		{"character quota", &gateway.QuotaError{Kind: gateway.QuotaCharacters, Limit: 10000, Used: 10000}, http.StatusPaymentRequired},
		{"premium voice", gateway.ErrPremiumVoice, http.StatusPaymentRequired},
		{"unknown voice", gateway.ErrUnknownVoice, http.StatusBadRequest},
		{"text too long", &gateway.TextTooLongError{Length: 2000, Max: 1000}, http.StatusBadRequest},
		{"provider down", &gateway.ProviderError{Err: errors.New("dial tcp: refused")}, http.StatusServiceUnavailable},
		{"unexpected", errors.New("database on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHandler(t, &stubSpeaker{err: tc.err})
			rec := doSpeak(h, "Bearer odia_abc", `{"text":"hello"}`)
			if rec.Code != tc.wantCode {
				t.Errorf("expected %d, got %d: %s", tc.wantCode, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSpeakHandlerRateLimitPayload(t *testing.T) {
	h := newHandler(t, &stubSpeaker{err: &gateway.RateLimitError{Limit: 20}})
	rec := doSpeak(h, "Bearer odia_abc", `{"text":"hello"}`)

	var body struct {
		Limit          int `json:"limit"`
		ResetInSeconds int `json:"reset_in_seconds"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Limit != 20 || body.ResetInSeconds != 60 {
		t.Errorf("payload = %+v", body)
	}
}

func TestSpeakHandlerNeverLeaksProviderCause(t *testing.T) {
	h := newHandler(t, &stubSpeaker{err: &gateway.ProviderError{Err: errors.New("secret upstream detail")}})
	rec := doSpeak(h, "Bearer odia_abc", `{"text":"hello"}`)
	if strings.Contains(rec.Body.String(), "secret upstream detail") {
		t.Error("provider error cause leaked to caller")
	}
}
