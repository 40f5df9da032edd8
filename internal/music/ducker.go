package music

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fitcue/fitcue/internal/coach"
	"github.com/fitcue/fitcue/internal/events"
	"github.com/fitcue/fitcue/internal/runutil"
	"github.com/fitcue/fitcue/internal/voice"
)

// DuckerConfig tunes the fade behavior.
type DuckerConfig struct {
	NormalVolume   float64       // baseline music volume, 0-1
	DuckedBaseline float64       // ducked volume before type/user multipliers, 0-1
	FadeSteps      int           // discrete interpolation steps per fade
	DuckFade       time.Duration // fade-down duration
	UnduckFade     time.Duration // fade-up duration
	SettleDelay    time.Duration // wait after speech ends before unducking
	WriteTimeout   time.Duration // per volume write
}

// DefaultDuckerConfig returns the stock fade tuning: a quick duck so the
// first words are audible, a slower recovery so music swells back in.
func DefaultDuckerConfig() DuckerConfig {
	return DuckerConfig{
		NormalVolume:   0.65,
		DuckedBaseline: 0.30,
		FadeSteps:      20,
		DuckFade:       800 * time.Millisecond,
		UnduckFade:     1200 * time.Millisecond,
		SettleDelay:    500 * time.Millisecond,
		WriteTimeout:   1 * time.Second,
	}
}

// Volume writes are throttled to every throttleEvery-th fade step, except
// that fades with a total delta under smallDelta are applied in a single
// write. Keeps the provider API from being flooded 20 times per fade.
const (
	throttleEvery = 3
	smallDelta    = 0.05
)

// cueTypeMultiplier scales the ducked volume per cue type: instructions duck
// hardest so they are never missed, rest-period chatter ducks least to keep
// the energy up.
func cueTypeMultiplier(t voice.CueType) float64 {
	switch t {
	case voice.CueInstruction:
		return 0.5
	case voice.CueExerciseDescription:
		return 0.6
	case voice.CueCountdown:
		return 0.8
	case voice.CueTransition:
		return 0.85
	case voice.CueMotivation:
		return 0.9
	case voice.CueRest:
		return 1.0
	default:
		return 0.8
	}
}

// phaseMultiplier subtly shifts the baseline per workout phase. It never
// engages the duck path; it only moves the level the unducked music sits at.
func phaseMultiplier(p coach.Phase) float64 {
	switch p {
	case coach.PhaseAwaitingReady:
		return 0.9
	case coach.PhaseExercise:
		return 1.0
	case coach.PhaseRest:
		return 0.8
	case coach.PhaseComplete:
		return 0.85
	default:
		return 1.0
	}
}

// Ducker lowers music volume while the trainer voice speaks and restores it
// afterwards. It consumes the dispatcher's speaking events; that broadcast
// is its only link to the voice side. Every volume write is best effort:
// provider failures are logged and swallowed, the workout is never blocked.
type Ducker struct {
	provider Provider
	cfg      DuckerConfig
	logger   *log.Logger

	mu          sync.Mutex
	userMult    float64
	phaseMult   float64
	ducked      bool
	applied     float64       // last volume we aimed a write at
	fadeCancel  chan struct{} // non-nil while a fade is in flight
	settleTimer *time.Timer

	wg sync.WaitGroup
}

// NewDucker creates a Ducker. userVolume is the persisted user multiplier
// (0-1); it survives across sessions while duck state does not.
func NewDucker(provider Provider, cfg DuckerConfig, userVolume float64, logger *log.Logger) *Ducker {
	if provider == nil {
		panic("Ducker: provider cannot be nil")
	}
	if logger == nil {
		panic("Ducker: logger cannot be nil")
	}
	if cfg.FadeSteps <= 0 {
		cfg.FadeSteps = DefaultDuckerConfig().FadeSteps
	}
	return &Ducker{
		provider:  provider,
		cfg:       cfg,
		logger:    logger,
		userMult:  clampUnit(userVolume),
		phaseMult: 1.0,
		applied:   cfg.NormalVolume * clampUnit(userVolume),
	}
}

// Attach subscribes the ducker to a speaking-event broadcast and returns the
// unsubscribe function.
func (d *Ducker) Attach(ev *events.CallbackEvent[voice.SpeakingEvent]) func() {
	return ev.Listen(d.OnSpeakingChanged)
}

// OnSpeakingChanged reacts to a speaking-state transition. Speech starting
// fades down immediately; speech ending waits a settle delay first so
// trailing audio isn't clipped, and a new cue within that window keeps the
// duck engaged.
func (d *Ducker) OnSpeakingChanged(ev voice.SpeakingEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ev.Speaking {
		if d.settleTimer != nil {
			d.settleTimer.Stop()
			d.settleTimer = nil
		}
		d.ducked = true
		target := d.cfg.DuckedBaseline * cueTypeMultiplier(ev.Type) * d.userMult
		d.startFadeLocked(target, d.cfg.DuckFade)
		return
	}

	if d.settleTimer != nil {
		d.settleTimer.Stop()
	}
	d.settleTimer = time.AfterFunc(d.cfg.SettleDelay, d.unduck)
}

func (d *Ducker) unduck() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.ducked {
		return
	}
	d.ducked = false
	d.settleTimer = nil
	d.startFadeLocked(d.cfg.NormalVolume*d.phaseMult*d.userMult, d.cfg.UnduckFade)
}

// SyncToPhase adjusts the unducked baseline for the given workout phase.
// Ignored while ducked; the duck target already won.
func (d *Ducker) SyncToPhase(p coach.Phase) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.phaseMult = phaseMultiplier(p)
	if d.ducked {
		return
	}
	d.startFadeLocked(d.cfg.NormalVolume*d.phaseMult*d.userMult, d.cfg.UnduckFade/2)
}

// SetUserVolume updates the user's volume multiplier (0-1). Applied
// immediately when not ducked; the next duck/unduck picks it up otherwise.
func (d *Ducker) SetUserVolume(v float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.userMult = clampUnit(v)
	if d.ducked {
		return
	}
	d.startFadeLocked(d.cfg.NormalVolume*d.phaseMult*d.userMult, d.cfg.UnduckFade/2)
}

// UserVolume returns the current user volume multiplier.
func (d *Ducker) UserVolume() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.userMult
}

// AppliedVolume returns the last volume a write was aimed at.
func (d *Ducker) AppliedVolume() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.applied
}

// Reset clears transient duck state at a session boundary and restores the
// unducked baseline. The user volume multiplier survives.
func (d *Ducker) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.settleTimer != nil {
		d.settleTimer.Stop()
		d.settleTimer = nil
	}
	d.ducked = false
	d.phaseMult = 1.0
	d.startFadeLocked(d.cfg.NormalVolume*d.userMult, d.cfg.UnduckFade/2)
}

// Close cancels any in-flight fade and waits for its goroutine.
func (d *Ducker) Close() {
	d.mu.Lock()
	if d.settleTimer != nil {
		d.settleTimer.Stop()
		d.settleTimer = nil
	}
	if d.fadeCancel != nil {
		close(d.fadeCancel)
		d.fadeCancel = nil
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// startFadeLocked cancels any fade in progress and starts a new one toward
// target. MUST be called with mu held. Fades never stack: overlapping
// writes to the provider would fight each other.
func (d *Ducker) startFadeLocked(target float64, dur time.Duration) {
	if d.fadeCancel != nil {
		close(d.fadeCancel)
	}
	cancel := make(chan struct{})
	d.fadeCancel = cancel
	from := d.applied

	d.wg.Add(1)
	runutil.SafeGo(d.logger, func() {
		defer d.wg.Done()
		d.runFade(from, target, dur, cancel)
	})
}

func (d *Ducker) runFade(from, target float64, dur time.Duration, cancel <-chan struct{}) {
	delta := target - from
	if delta < smallDelta && delta > -smallDelta {
		d.applyVolume(target)
		return
	}

	steps := d.cfg.FadeSteps
	interval := dur / time.Duration(steps)
	for i := 1; i <= steps; i++ {
		select {
		case <-cancel:
			return
		case <-time.After(interval):
		}
		if i%throttleEvery != 0 && i != steps {
			continue
		}
		v := from + delta*float64(i)/float64(steps)
		d.applyVolume(v)
	}
}

func (d *Ducker) applyVolume(v float64) {
	v = clampUnit(v)
	d.mu.Lock()
	d.applied = v
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.WriteTimeout)
	defer cancel()
	if err := d.provider.SetVolume(ctx, int(v*100+0.5)); err != nil {
		// Best effort only: music control must never fail the workout.
		d.logger.Printf("Ducker: volume write failed: %v", err)
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
