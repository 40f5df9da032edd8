package voice

import (
	"context"
	"errors"
)

// Audio format produced by every synthesizer: 16-bit signed little-endian
// PCM, mono. Keeping a single uncompressed format end to end avoids codec
// handling entirely.
const (
	SampleRate = 44100
	Channels   = 1
	BitDepth   = 16
)

// Synthesis failure classes. Providers wrap the underlying error so callers
// can branch with errors.Is while logs keep the full cause.
var (
	ErrNetwork      = errors.New("voice: network failure")
	ErrUnauthorized = errors.New("voice: invalid credentials")
	ErrRateLimited  = errors.New("voice: rate limited")
	ErrInvalidInput = errors.New("voice: invalid input")
	ErrEmptyAudio   = errors.New("voice: empty audio payload")
)

// Synthesizer converts text to PCM audio. Implementations must honor ctx
// cancellation; a synthesis call abandoned by the dispatcher (session
// stopped) must not block shutdown.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Name() string
}
