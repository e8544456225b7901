package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// EdgeProvider calls an edge-tts bridge over HTTP: POST {text, voice} to
// baseURL/tts, audio bytes back.
type EdgeProvider struct {
	baseURL string
	client  *http.Client
}

func NewEdgeProvider(baseURL string, client *http.Client) *EdgeProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &EdgeProvider{baseURL: baseURL, client: client}
}

var _ Provider = (*EdgeProvider)(nil)

func (p *EdgeProvider) Synthesize(ctx context.Context, text, upstreamVoice string) (*Audio, error) {
	body, err := json.Marshal(map[string]string{"text": text, "voice": upstreamVoice})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/tts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("edge-tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little for the error message; upstream payloads are not
		// forwarded to API callers.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("edge-tts upstream status %d: %s", resp.StatusCode, snippet)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("edge-tts read body: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("edge-tts returned empty audio")
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "audio/mpeg"
	}
	return &Audio{Bytes: audio, ContentType: ct}, nil
}
