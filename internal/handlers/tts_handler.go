package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/odiadev/tts-gateway/internal/gateway"
	"github.com/odiadev/tts-gateway/internal/middleware"
	"github.com/odiadev/tts-gateway/internal/models"
)

// speakRequestSchema validates the synthesis request body before it reaches
// the gateway core.
const speakRequestSchema = `{
	"type": "object",
	"required": ["text"],
	"properties": {
		"text": {"type": "string", "minLength": 1, "maxLength": 1000},
		"voice_id": {"type": "string"}
	},
	"additionalProperties": false
}`

// Speaker is the gateway surface the handler needs.
type Speaker interface {
	Speak(ctx context.Context, presentedSecret string, req gateway.SpeakRequest) (*gateway.SpeakResult, error)
}

type TTSHandler struct {
	gw     Speaker
	schema *jsonschema.Schema
	log    *slog.Logger
}

func NewTTSHandler(gw Speaker, log *slog.Logger) (*TTSHandler, error) {
	if log == nil {
		log = slog.Default()
	}
	schema, err := jsonschema.CompileString("speak_request.json", speakRequestSchema)
	if err != nil {
		return nil, err
	}
	return &TTSHandler{gw: gw, schema: schema, log: log}, nil
}

type speakBody struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

// Speak handles POST /v1/tts.
func (h *TTSHandler) Speak(w http.ResponseWriter, r *http.Request) {
	secret := middleware.BearerToken(r)
	if secret == "" {
		writeError(w, http.StatusUnauthorized, map[string]any{"error": "missing or malformed Authorization header"})
		return
	}

	var raw any
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, map[string]any{"error": "JSON payload required"})
		return
	}
	if err := h.schema.Validate(raw); err != nil {
		writeError(w, http.StatusBadRequest, map[string]any{"error": "invalid request: " + err.Error()})
		return
	}
	var body speakBody
	buf, _ := json.Marshal(raw)
	_ = json.Unmarshal(buf, &body)
	if body.VoiceID == "" {
		body.VoiceID = "lexi_whatsapp"
	}

	res, err := h.gw.Speak(r.Context(), secret, gateway.SpeakRequest{
		Text:     body.Text,
		VoiceID:  body.VoiceID,
		Endpoint: "/v1/tts",
		ClientIP: clientIP(r),
	})
	if err != nil {
		h.writeSpeakError(w, err)
		return
	}

	w.Header().Set("Content-Type", res.Audio.ContentType)
	w.Header().Set("X-Voice-ID", res.Voice.ID)
	w.Header().Set("X-Voice-Name", res.Voice.Name)
	w.Header().Set("X-Character-Count", strconv.Itoa(res.CharacterCount))
	w.Header().Set("X-Processing-Time-Ms", strconv.Itoa(res.LatencyMs))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Audio.Bytes)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Audio.Bytes)
}

func (h *TTSHandler) writeSpeakError(w http.ResponseWriter, err error) {
	var (
		rle *gateway.RateLimitError
		qe  *gateway.QuotaError
		tle *gateway.TextTooLongError
		pe  *gateway.ProviderError
	)
	switch {
	case errors.Is(err, gateway.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, map[string]any{"error": "invalid api key"})
	case errors.As(err, &rle):
		writeError(w, http.StatusTooManyRequests, map[string]any{
			"error":            "rate limit exceeded",
			"limit":            rle.Limit,
			"reset_in_seconds": 60,
		})
	case errors.As(err, &qe):
		writeError(w, http.StatusPaymentRequired, map[string]any{
			"error": qe.Kind + " quota exceeded",
			"limit": qe.Limit,
			"used":  qe.Used,
		})
	case errors.Is(err, gateway.ErrPremiumVoice):
		writeError(w, http.StatusPaymentRequired, map[string]any{"error": "premium voice requires a paid subscription"})
	case errors.Is(err, gateway.ErrTextRequired):
		writeError(w, http.StatusBadRequest, map[string]any{"error": "text is required"})
	case errors.As(err, &tle):
		writeError(w, http.StatusBadRequest, map[string]any{
			"error":  "text too long",
			"length": tle.Length,
			"max":    tle.Max,
		})
	case errors.Is(err, gateway.ErrUnknownVoice):
		writeError(w, http.StatusBadRequest, map[string]any{
			"error":            "invalid voice_id",
			"available_voices": voiceIDs(),
		})
	case errors.As(err, &pe):
		// The underlying cause stays in the logs; callers get a clean 503.
		writeError(w, http.StatusServiceUnavailable, map[string]any{"error": "synthesis failed"})
	default:
		h.log.Error("speak failed", "error", err)
		writeError(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

func voiceIDs() []string {
	ids := make([]string, 0, len(models.Voices))
	for id := range models.Voices {
		ids = append(ids, id)
	}
	return ids
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

func writeError(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
