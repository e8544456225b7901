// Package synth contains the synthesis provider boundary. The gateway core
// treats providers as external collaborators: it only needs success with
// bytes, or a distinguishable failure.
package synth

import "context"

// Audio is the output of one synthesis call.
type Audio struct {
	Bytes       []byte
	ContentType string
}

// Provider turns validated text into audio. Implementations must honor the
// context deadline; the gateway treats a timeout like any other failure and
// does not bill it.
type Provider interface {
	Synthesize(ctx context.Context, text, upstreamVoice string) (*Audio, error)
}
