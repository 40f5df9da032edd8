package voice

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fitcue/fitcue/internal/audio"
	"github.com/fitcue/fitcue/internal/events"
	"github.com/fitcue/fitcue/internal/runutil"
)

// defaultCueGap is the pause between the end of one cue and the start of the
// next, so consecutive cues never run together and the ducker's unduck has
// room to settle.
const defaultCueGap = 300 * time.Millisecond

// Dispatcher serializes cue playback. Cues are spoken strictly one at a
// time: the worker pops the head of the queue, broadcasts "speaking",
// resolves audio (cache, then primary synthesizer, then fallback), plays it,
// broadcasts "stopped", waits a short gap, and repeats. Every speaking-state
// transition is published on SpeakingEvents; the dispatcher and the ducker
// share no other state.
type Dispatcher struct {
	primary  Synthesizer
	fallback Synthesizer
	player   audio.Player
	cache    *AudioCache
	logger   *log.Logger

	speakingEvent *events.CallbackEvent[SpeakingEvent]

	mu       sync.Mutex
	queue    []Cue
	current  *Cue
	speaking bool
	cancel   context.CancelFunc // cancels in-flight synthesis + playback
	cueGap   time.Duration

	wake         chan struct{}
	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewDispatcher creates a Dispatcher and starts its worker goroutine.
// fallback must never fail (see ToneSynthesizer); primary is typically an
// ElevenLabs synthesizer wrapped in a Retrier.
func NewDispatcher(primary, fallback Synthesizer, player audio.Player, cache *AudioCache, logger *log.Logger) *Dispatcher {
	if primary == nil || fallback == nil {
		panic("Dispatcher: synthesizers cannot be nil")
	}
	if player == nil {
		panic("Dispatcher: player cannot be nil")
	}
	if logger == nil {
		panic("Dispatcher: logger cannot be nil")
	}
	if cache == nil {
		cache = NewAudioCache(DefaultCacheBytes, DefaultCacheTTL)
	}

	d := &Dispatcher{
		primary:       primary,
		fallback:      fallback,
		player:        player,
		cache:         cache,
		logger:        logger,
		speakingEvent: events.NewCallbackEvent[SpeakingEvent](false),
		cueGap:        defaultCueGap,
		wake:          make(chan struct{}, 1),
		doneChan:      make(chan struct{}),
	}

	d.wg.Add(1)
	runutil.SafeGo(logger, d.run)
	return d
}

// SpeakingEvents returns the speaking-state broadcast channel.
func (d *Dispatcher) SpeakingEvents() *events.CallbackEvent[SpeakingEvent] {
	return d.speakingEvent
}

// Enqueue appends cue to the queue unless a cue with the same ID or
// identical text is already queued or currently speaking. The duplicate
// suppression protects against double-scheduling from overlapping tick
// invocations in the session engine.
func (d *Dispatcher) Enqueue(cue Cue) {
	d.mu.Lock()
	if d.current != nil && (d.current.ID == cue.ID || d.current.Text == cue.Text) {
		d.mu.Unlock()
		d.logger.Printf("Dispatcher: dropped duplicate of speaking cue %q", cue.Text)
		return
	}
	for _, q := range d.queue {
		if q.ID == cue.ID || q.Text == cue.Text {
			d.mu.Unlock()
			d.logger.Printf("Dispatcher: dropped duplicate queued cue %q", cue.Text)
			return
		}
	}
	d.queue = append(d.queue, cue)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Busy reports whether a cue is speaking or waiting to speak. The session
// engine only dispatches due cues while the dispatcher is idle.
func (d *Dispatcher) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speaking || len(d.queue) > 0
}

// Pause pauses audio playback mid-cue. It deliberately does not cancel an
// in-flight synthesis call: a paused workout resumes with the same cue.
func (d *Dispatcher) Pause() {
	d.player.Pause()
}

// Resume resumes paused audio playback.
func (d *Dispatcher) Resume() {
	d.player.Resume()
}

// Stop clears the queue and aborts the current cue, including any pending
// synthesis retry. Used by the engine's stopWorkout path.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.queue = nil
	cancel := d.cancel
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	d.player.Stop()
}

// Shutdown stops the worker goroutine. Safe to call multiple times.
func (d *Dispatcher) Shutdown() {
	d.shutdownOnce.Do(func() {
		close(d.doneChan)
		d.Stop()
		d.wg.Wait()
	})
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case <-d.doneChan:
			return
		case <-d.wake:
		}

		for d.speakNext() {
			select {
			case <-d.doneChan:
				return
			case <-time.After(d.cueGap):
			}
		}
	}
}

// speakNext pops and speaks one cue. Returns false when the queue is empty.
func (d *Dispatcher) speakNext() bool {
	d.mu.Lock()
	if len(d.queue) == 0 {
		d.mu.Unlock()
		return false
	}
	cue := d.queue[0]
	d.queue = d.queue[1:]
	ctx, cancel := context.WithCancel(context.Background())
	d.current = &cue
	d.speaking = true
	d.cancel = cancel
	d.mu.Unlock()

	d.speakingEvent.Notify(SpeakingEvent{Speaking: true, Type: cue.Type, Text: cue.Text})

	if pcm := d.resolveAudio(ctx, cue.Text); len(pcm) > 0 {
		if err := d.player.Play(ctx, pcm); err != nil && ctx.Err() == nil {
			d.logger.Printf("Dispatcher: playback of %q failed: %v", cue.Text, err)
		}
	}

	d.mu.Lock()
	d.current = nil
	d.speaking = false
	d.cancel = nil
	d.mu.Unlock()
	cancel()

	d.speakingEvent.Notify(SpeakingEvent{Speaking: false, Type: cue.Type, Text: cue.Text})
	return true
}

// resolveAudio returns PCM for text: cached audio if present, otherwise the
// primary synthesizer (with its retry policy), otherwise the fallback.
// Synthesis failures never abort the workout; worst case the cue is silent.
func (d *Dispatcher) resolveAudio(ctx context.Context, text string) []byte {
	if pcm, ok := d.cache.Get(text); ok {
		return pcm
	}

	pcm, err := d.primary.Synthesize(ctx, text)
	if err == nil && len(pcm) > 0 {
		d.cache.Put(text, pcm)
		return pcm
	}
	if ctx.Err() != nil {
		return nil
	}
	if err == nil {
		err = ErrEmptyAudio
	}
	d.logger.Printf("Dispatcher: %s failed for %q, using %s: %v",
		d.primary.Name(), text, d.fallback.Name(), err)

	pcm, err = d.fallback.Synthesize(ctx, text)
	if err != nil {
		d.logger.Printf("Dispatcher: fallback failed for %q: %v", text, err)
		return nil
	}
	return pcm
}
