package synth

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

const (
	toneSampleRate = 22050
	secsPerChar    = 0.08
	minToneSecs    = 0.5
	maxToneSecs    = 10.0
)

// ToneProvider is the native fallback: it renders a modulated sine sweep as
// 16-bit mono WAV so the gateway stays demoable without an upstream engine.
// Pitch follows the voice name (male voices lower), duration follows text
// length. No claim to speech quality is made.
type ToneProvider struct{}

func NewToneProvider() *ToneProvider { return &ToneProvider{} }

var _ Provider = (*ToneProvider)(nil)

func (p *ToneProvider) Synthesize(ctx context.Context, text, upstreamVoice string) (*Audio, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("tone synthesis: empty text")
	}

	secs := float64(len(text)) * secsPerChar
	if secs < minToneSecs {
		secs = minToneSecs
	}
	if secs > maxToneSecs {
		secs = maxToneSecs
	}

	baseFreq := 220.0
	if strings.Contains(strings.ToLower(upstreamVoice), "abeo") {
		baseFreq = 165.0
	}

	n := int(secs * toneSampleRate)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / toneSampleRate
		// Slow vibrato plus a gentle fade at both ends keeps the tone from
		// clicking when playback starts or stops.
		f := baseFreq * (1 + 0.02*math.Sin(2*math.Pi*3*t))
		env := math.Min(1, math.Min(t/0.05, (secs-t)/0.05))
		v := 0.3 * env * math.Sin(2*math.Pi*f*t)
		samples[i] = int16(v * 32767)
	}
	return &Audio{Bytes: encodeWAV(samples, toneSampleRate), ContentType: "audio/wav"}, nil
}

// encodeWAV wraps 16-bit mono PCM samples in a RIFF/WAVE container.
func encodeWAV(samples []int16, sampleRate int) []byte {
	dataLen := len(samples) * 2
	buf := make([]byte, 0, 44+dataLen)

	u32 := func(v uint32) []byte { b := make([]byte, 4); binary.LittleEndian.PutUint32(b, v); return b }
	u16 := func(v uint16) []byte { b := make([]byte, 2); binary.LittleEndian.PutUint16(b, v); return b }

	buf = append(buf, "RIFF"...)
	buf = append(buf, u32(uint32(36+dataLen))...)
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	buf = append(buf, u32(16)...)                      // fmt chunk size
	buf = append(buf, u16(1)...)                       // PCM
	buf = append(buf, u16(1)...)                       // mono
	buf = append(buf, u32(uint32(sampleRate))...)      // sample rate
	buf = append(buf, u32(uint32(sampleRate*2))...)    // byte rate
	buf = append(buf, u16(2)...)                       // block align
	buf = append(buf, u16(16)...)                      // bits per sample
	buf = append(buf, "data"...)
	buf = append(buf, u32(uint32(dataLen))...)
	for _, s := range samples {
		buf = append(buf, u16(uint16(s))...)
	}
	return buf
}
