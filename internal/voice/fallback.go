package voice

import (
	"context"
	"encoding/binary"
	"math"
	"strings"
)

// Tone parameters for the on-device fallback. One short beep per word, with
// alternating pitch, reads as a recognizable cadence when speech synthesis
// is unavailable.
const (
	toneHighHz   = 880.0
	toneLowHz    = 660.0
	toneDuration = 90 * 1000  // microseconds per beep
	toneGap      = 45 * 1000  // microseconds of silence between beeps
	toneMaxBeeps = 12
	toneAmp      = 0.30
)

// ToneSynthesizer is the always-available fallback: it renders text as a
// sequence of pure-math PCM beeps and can only fail on context cancellation.
type ToneSynthesizer struct{}

// NewToneSynthesizer creates the fallback synthesizer.
func NewToneSynthesizer() *ToneSynthesizer { return &ToneSynthesizer{} }

// Name implements Synthesizer.
func (s *ToneSynthesizer) Name() string { return "tone-fallback" }

// Synthesize implements Synthesizer.
func (s *ToneSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := len(strings.Fields(text))
	if words == 0 {
		words = 1
	}
	if words > toneMaxBeeps {
		words = toneMaxBeeps
	}

	beep := int(int64(SampleRate) * toneDuration / 1e6)
	gap := int(int64(SampleRate) * toneGap / 1e6)

	buf := make([]byte, 0, words*(beep+gap)*2)
	for w := 0; w < words; w++ {
		freq := toneHighHz
		if w%2 == 1 {
			freq = toneLowHz
		}
		buf = appendTone(buf, freq, beep)
		buf = appendSilence(buf, gap)
	}
	return buf, nil
}

// appendTone appends n samples of a sine tone with a short linear attack and
// release envelope to avoid clicks at segment boundaries.
func appendTone(buf []byte, freq float64, n int) []byte {
	ramp := n / 8
	for i := 0; i < n; i++ {
		env := 1.0
		if i < ramp {
			env = float64(i) / float64(ramp)
		} else if i >= n-ramp {
			env = float64(n-i) / float64(ramp)
		}
		v := toneAmp * env * math.Sin(2*math.Pi*freq*float64(i)/float64(SampleRate))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(int16(v*math.MaxInt16)))
	}
	return buf
}

func appendSilence(buf []byte, n int) []byte {
	return append(buf, make([]byte, n*2)...)
}
