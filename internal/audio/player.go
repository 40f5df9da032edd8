// Package audio plays raw PCM through the system audio device via oto.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player plays one PCM clip at a time. Play blocks until playback finishes,
// ctx is canceled, or Stop is called; the voice dispatcher relies on that to
// serialize cues. Pause/Resume act on the clip currently playing.
type Player interface {
	Play(ctx context.Context, pcm []byte) error
	Pause()
	Resume()
	Stop()
	Close() error
}

// OtoPlayer is the production Player backed by an oto context.
type OtoPlayer struct {
	ctx    *oto.Context
	logger *log.Logger

	mu      sync.Mutex
	current *oto.Player
	paused  bool
	stop    chan struct{} // non-nil while a clip is playing
}

// NewOtoPlayer opens the system audio device for 16-bit mono PCM at the
// given sample rate.
func NewOtoPlayer(sampleRate int, logger *log.Logger) (*OtoPlayer, error) {
	if logger == nil {
		panic("OtoPlayer: logger cannot be nil")
	}
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	<-ready
	return &OtoPlayer{ctx: ctx, logger: logger}, nil
}

// Play implements Player.
func (p *OtoPlayer) Play(ctx context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}

	p.mu.Lock()
	if p.current != nil {
		p.mu.Unlock()
		return fmt.Errorf("audio: already playing")
	}
	player := p.ctx.NewPlayer(bytes.NewReader(pcm))
	stop := make(chan struct{})
	p.current = player
	p.paused = false
	p.stop = stop
	p.mu.Unlock()

	player.Play()

	// oto exposes no completion callback; poll at a granularity well below
	// the dispatcher's inter-cue gap.
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()

	var err error
loop:
	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break loop
		case <-stop:
			break loop
		case <-ticker.C:
			p.mu.Lock()
			done := !p.paused && !player.IsPlaying()
			p.mu.Unlock()
			if done {
				break loop
			}
		}
	}

	p.mu.Lock()
	p.current = nil
	p.stop = nil
	p.paused = false
	p.mu.Unlock()

	if cerr := player.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Pause implements Player.
func (p *OtoPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil && !p.paused {
		p.current.Pause()
		p.paused = true
	}
}

// Resume implements Player.
func (p *OtoPlayer) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil && p.paused {
		p.current.Play()
		p.paused = false
	}
}

// Stop implements Player. It aborts the in-flight Play call, if any.
func (p *OtoPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
}

// Close implements Player. The oto context itself cannot be closed; stopping
// playback releases the only per-clip resource.
func (p *OtoPlayer) Close() error {
	p.Stop()
	return nil
}

// NopPlayer discards audio instantly. It stands in for the device on
// headless machines so a workout still runs with captions only.
type NopPlayer struct{}

func (NopPlayer) Play(ctx context.Context, pcm []byte) error { return ctx.Err() }
func (NopPlayer) Pause()                                     {}
func (NopPlayer) Resume()                                    {}
func (NopPlayer) Stop()                                      {}
func (NopPlayer) Close() error                               { return nil }
