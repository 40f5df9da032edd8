package coach

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/fitcue/fitcue/internal/events"
	"github.com/fitcue/fitcue/internal/runutil"
	"github.com/fitcue/fitcue/internal/voice"
)

// sessionCommand represents commands sent to the session goroutine.
type sessionCommand struct {
	kind    commandKind
	workout *Workout
	easier  bool
	gen     uint64 // session generation for deferred commands
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdReady
	cmdBeginPhase // deferred: start the exercise timer after the begin cue
	cmdTransition // deferred: leave the phase after its completion cue
	cmdPause
	cmdResume
	cmdAdjust
	cmdStop
)

// Engine operation errors.
var (
	ErrEmptyWorkout  = errors.New("coach: workout has no exercises")
	ErrSessionActive = errors.New("coach: a session is already active")
)

// Timing defaults. Elapsed time is always recomputed from a wall-clock phase
// start marker, never by counting ticks, so timer jitter cannot drift the
// schedule.
const (
	defaultTickEvery       = 1 * time.Second
	defaultReadyStartDelay = 1500 * time.Millisecond
	defaultTransitionDelay = 2 * time.Second
)

type engineConfig struct {
	tickEvery       time.Duration
	readyStartDelay time.Duration
	transitionDelay time.Duration
	now             func() time.Time
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		tickEvery:       defaultTickEvery,
		readyStartDelay: defaultReadyStartDelay,
		transitionDelay: defaultTransitionDelay,
		now:             time.Now,
	}
}

// CueSpeaker is the engine's view of the voice dispatcher.
type CueSpeaker interface {
	Enqueue(cue voice.Cue)
	Busy() bool
	Pause()
	Resume()
	Stop()
}

// Engine is the workout session state machine:
//
//	Idle -> AwaitingReady(0) -> RunningExercise(0) -> RunningRest(0)
//	     -> AwaitingReady(1) -> ... -> Complete
//
// Paused overlays the running phases; it suspends the tick, it is not a
// phase of its own. All mutable state is owned by the session goroutine plus
// this mutex; public methods validate and forward commands, mirroring how
// external calls always happen outside the lock.
type Engine struct {
	speaker   CueSpeaker
	estimator CalorieEstimator
	logger    *log.Logger

	mu                 sync.RWMutex
	workout            *Workout
	phase              Phase
	paused             bool
	exerciseIndex      int
	phaseStart         time.Time
	pausedElapsed      time.Duration
	planned            time.Duration // effective duration of the current phase
	schedule           []voice.Cue   // sorted ascending, not yet dispatched
	completionCueID    string
	transitionArmed    bool // completion cue dispatched, transition pending
	completedExercises int
	intensity          int
	sessionStart       time.Time
	gen                uint64

	cfg engineConfig

	snapshotEvent  *events.ChannelEvent[Snapshot]
	completedEvent *events.CallbackEvent[SessionRecord]

	// Owned by the session goroutine.
	readyTimer        *time.Timer
	transitionTimer   *time.Timer
	pendingTransition *sessionCommand // transition that arrived while paused

	cmdChan      chan sessionCommand
	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewEngine creates an Engine and starts its session goroutine.
func NewEngine(speaker CueSpeaker, estimator CalorieEstimator, logger *log.Logger) *Engine {
	return newEngine(speaker, estimator, logger, defaultEngineConfig())
}

func newEngine(speaker CueSpeaker, estimator CalorieEstimator, logger *log.Logger, cfg engineConfig) *Engine {
	if speaker == nil {
		panic("Engine: speaker cannot be nil")
	}
	if logger == nil {
		panic("Engine: logger cannot be nil")
	}
	if estimator == nil {
		estimator = LinearEstimator{}
	}

	e := &Engine{
		speaker:        speaker,
		estimator:      estimator,
		logger:         logger,
		phase:          PhaseIdle,
		cfg:            cfg,
		snapshotEvent:  events.NewChannelEvent[Snapshot](true),
		completedEvent: events.NewCallbackEvent[SessionRecord](false),
		cmdChan:        make(chan sessionCommand, 8),
		doneChan:       make(chan struct{}),
	}

	e.wg.Add(1)
	runutil.SafeGo(logger, e.runSessionLoop)
	return e
}

// Snapshots returns the state broadcast channel. The latest snapshot is
// replayed to new listeners.
func (e *Engine) Snapshots() *events.ChannelEvent[Snapshot] {
	return e.snapshotEvent
}

// Completions returns the completed-session broadcast.
func (e *Engine) Completions() *events.CallbackEvent[SessionRecord] {
	return e.completedEvent
}

// Start loads a workout and enters the first exercise's preparation phase.
// The exercise description is spoken immediately; the phase timer does not
// start until MarkReady.
func (e *Engine) Start(w *Workout) error {
	if w == nil || len(w.Exercises) == 0 {
		e.logger.Printf("Engine: refusing to start workout with no exercises")
		return ErrEmptyWorkout
	}

	e.mu.RLock()
	phase := e.phase
	e.mu.RUnlock()
	if phase != PhaseIdle && phase != PhaseComplete {
		e.logger.Printf("Engine: cannot start, session active in phase %s", phase)
		return ErrSessionActive
	}

	e.cmdChan <- sessionCommand{kind: cmdStart, workout: w}
	return nil
}

// MarkReady signals that the user is in position. Valid only while awaiting
// ready; speaks a begin cue and starts the exercise timer after a brief
// fixed delay.
func (e *Engine) MarkReady() {
	e.mu.RLock()
	ok := e.phase == PhaseAwaitingReady
	e.mu.RUnlock()
	if !ok {
		e.logger.Printf("Engine: MarkReady ignored, not awaiting ready")
		return
	}
	e.cmdChan <- sessionCommand{kind: cmdReady}
}

// Pause suspends the tick loop and pauses any cue audio mid-speech. Valid
// from the running phases only.
func (e *Engine) Pause() {
	e.mu.RLock()
	ok := (e.phase == PhaseExercise || e.phase == PhaseRest) && !e.paused
	e.mu.RUnlock()
	if !ok {
		e.logger.Printf("Engine: Pause ignored, nothing running")
		return
	}
	e.cmdChan <- sessionCommand{kind: cmdPause}
}

// Resume restarts the tick with the elapsed time frozen at the pause point,
// so remaining time is unaffected by how long the pause lasted.
func (e *Engine) Resume() {
	e.mu.RLock()
	ok := e.paused
	e.mu.RUnlock()
	if !ok {
		e.logger.Printf("Engine: Resume ignored, not paused")
		return
	}
	e.cmdChan <- sessionCommand{kind: cmdResume}
}

// AdjustIntensity rescales the current phase's remaining window by 0.8
// (easier) or 1.2 (harder) and regenerates its cue schedule. Stored exercise
// durations and other phases are never touched.
func (e *Engine) AdjustIntensity(easier bool) {
	e.mu.RLock()
	ok := e.phase == PhaseExercise || e.phase == PhaseRest
	e.mu.RUnlock()
	if !ok {
		e.logger.Printf("Engine: AdjustIntensity ignored, nothing running")
		return
	}
	e.cmdChan <- sessionCommand{kind: cmdAdjust, easier: easier}
}

// Stop aborts the session from any state, cancelling the tick, pending
// phase transitions and all queued or speaking cues.
func (e *Engine) Stop() {
	e.mu.RLock()
	ok := e.phase != PhaseIdle
	e.mu.RUnlock()
	if !ok {
		e.logger.Printf("Engine: Stop ignored, no session")
		return
	}
	e.cmdChan <- sessionCommand{kind: cmdStop}
}

// Shutdown stops the session goroutine. Safe to call multiple times.
func (e *Engine) Shutdown() {
	e.shutdownOnce.Do(func() {
		close(e.doneChan)
		e.wg.Wait()
	})
}

// after schedules cmd to be delivered to the session loop once d elapses.
// The command carries the current generation; a stop or restart in the
// meantime makes it a stale no-op instead of corrupting the new session.
func (e *Engine) after(d time.Duration, cmd sessionCommand) *time.Timer {
	return time.AfterFunc(d, func() {
		select {
		case e.cmdChan <- cmd:
		case <-e.doneChan:
		}
	})
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

// snapshotLocked builds the externally visible state. MUST be called with mu
// held (at least read lock).
func (e *Engine) snapshotLocked() Snapshot {
	s := Snapshot{
		Phase:              e.phase,
		Paused:             e.paused,
		ExerciseIndex:      e.exerciseIndex,
		CompletedExercises: e.completedExercises,
		Intensity:          e.intensity,
		Planned:            e.planned,
	}
	if e.workout == nil {
		return s
	}
	s.WorkoutTitle = e.workout.Title
	s.TotalExercises = len(e.workout.Exercises)
	if e.exerciseIndex < len(e.workout.Exercises) {
		s.ExerciseName = e.workout.Exercises[e.exerciseIndex].Name
	}
	if e.exerciseIndex+1 < len(e.workout.Exercises) {
		s.NextExerciseName = e.workout.Exercises[e.exerciseIndex+1].Name
	}
	if e.phase == PhaseExercise || e.phase == PhaseRest {
		s.Elapsed = e.elapsedLocked()
		s.Remaining = e.planned - s.Elapsed
		if s.Remaining < 0 {
			s.Remaining = 0
		}
	}
	return s
}

// elapsedLocked returns time elapsed in the current phase, frozen while
// paused. MUST be called with mu held.
func (e *Engine) elapsedLocked() time.Duration {
	if e.paused {
		return e.pausedElapsed
	}
	if e.phaseStart.IsZero() {
		return 0
	}
	return e.cfg.now().Sub(e.phaseStart)
}

// runSessionLoop is the session goroutine: the single owner of all phase
// transitions and cue dispatch.
func (e *Engine) runSessionLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.tickEvery)
	ticker.Stop() // started when an exercise or rest phase begins

	for {
		select {
		case <-e.doneChan:
			ticker.Stop()
			stopTimer(e.readyTimer)
			stopTimer(e.transitionTimer)
			return

		case cmd := <-e.cmdChan:
			e.handleCommand(cmd, ticker)

		case <-ticker.C:
			e.handleTick()
		}
	}
}

func (e *Engine) handleCommand(cmd sessionCommand, ticker *time.Ticker) {
	switch cmd.kind {
	case cmdStart:
		e.handleStart(cmd.workout, ticker)
	case cmdReady:
		e.handleReady()
	case cmdBeginPhase:
		e.handleBeginPhase(cmd, ticker)
	case cmdTransition:
		e.handleTransition(cmd, ticker)
	case cmdPause:
		e.handlePause(ticker)
	case cmdResume:
		e.handleResume(ticker)
	case cmdAdjust:
		e.handleAdjust(cmd.easier)
	case cmdStop:
		e.handleStop(ticker)
	}
}

func (e *Engine) handleStart(w *Workout, ticker *time.Ticker) {
	ticker.Stop()
	stopTimer(e.readyTimer)
	stopTimer(e.transitionTimer)
	e.pendingTransition = nil

	e.mu.Lock()
	if e.phase != PhaseIdle && e.phase != PhaseComplete {
		e.mu.Unlock()
		e.logger.Printf("Engine: start raced with an active session, ignored")
		return
	}
	e.gen++
	e.workout = w
	e.phase = PhaseAwaitingReady
	e.paused = false
	e.exerciseIndex = 0
	e.phaseStart = time.Time{}
	e.pausedElapsed = 0
	e.planned = 0
	e.schedule = nil
	e.completionCueID = ""
	e.transitionArmed = false
	e.completedExercises = 0
	e.intensity = 0
	e.sessionStart = e.cfg.now()
	first := w.Exercises[0]
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Printf("Engine: session started, workout %q (%d exercises)", w.Title, len(w.Exercises))
	e.speaker.Enqueue(descriptionCue(first))
	e.snapshotEvent.Notify(snap)
}

func (e *Engine) handleReady() {
	e.mu.Lock()
	if e.phase != PhaseAwaitingReady {
		e.mu.Unlock()
		return
	}
	ex := e.workout.Exercises[e.exerciseIndex]
	gen := e.gen
	e.mu.Unlock()

	e.speaker.Enqueue(beginCue(ex))
	stopTimer(e.readyTimer)
	e.readyTimer = e.after(e.cfg.readyStartDelay, sessionCommand{kind: cmdBeginPhase, gen: gen})
	e.logger.Printf("Engine: user ready for %q, timer starts in %v", ex.Name, e.cfg.readyStartDelay)
}

func (e *Engine) handleBeginPhase(cmd sessionCommand, ticker *time.Ticker) {
	e.mu.Lock()
	if cmd.gen != e.gen || e.phase != PhaseAwaitingReady {
		e.mu.Unlock()
		return
	}
	ex := e.workout.Exercises[e.exerciseIndex]
	isLast := e.exerciseIndex == len(e.workout.Exercises)-1
	e.phase = PhaseExercise
	e.planned = ex.Duration
	e.schedule, e.completionCueID = exerciseCues(ex, e.planned, isLast)
	e.transitionArmed = false
	e.phaseStart = e.cfg.now()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	ticker.Reset(e.cfg.tickEvery)
	e.logger.Printf("Engine: exercise %d %q running for %v", snap.ExerciseIndex, ex.Name, ex.Duration)
	e.snapshotEvent.Notify(snap)
}

// handleTick recomputes elapsed time from the phase start marker and
// dispatches at most one due cue. The cue leaves the schedule before the
// dispatcher sees it, so a racing tick can never fire it twice.
func (e *Engine) handleTick() {
	busy := e.speaker.Busy()

	e.mu.Lock()
	if e.paused || (e.phase != PhaseExercise && e.phase != PhaseRest) {
		e.mu.Unlock()
		return
	}

	elapsed := e.elapsedLocked()
	var due *voice.Cue
	if !busy && len(e.schedule) > 0 && e.schedule[0].Timing <= int(elapsed.Seconds()) {
		cue := e.schedule[0]
		e.schedule = e.schedule[1:]
		due = &cue
		if cue.ID == e.completionCueID {
			e.transitionArmed = true
		}
	}
	armTransition := due != nil && e.transitionArmed && due.ID == e.completionCueID
	gen := e.gen
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if due != nil {
		e.speaker.Enqueue(*due)
	}
	if armTransition {
		stopTimer(e.transitionTimer)
		e.transitionTimer = e.after(e.cfg.transitionDelay, sessionCommand{kind: cmdTransition, gen: gen})
	}
	e.snapshotEvent.Notify(snap)
}

func (e *Engine) handleTransition(cmd sessionCommand, ticker *time.Ticker) {
	e.mu.Lock()
	if cmd.gen != e.gen {
		e.mu.Unlock()
		return
	}
	if e.paused {
		// Apply once the user resumes; transitioning under a paused
		// timer would skip part of the workout silently.
		c := cmd
		e.pendingTransition = &c
		e.mu.Unlock()
		return
	}

	switch e.phase {
	case PhaseExercise:
		e.completedExercises++
		e.transitionArmed = false
		if e.exerciseIndex >= len(e.workout.Exercises)-1 {
			e.completeLocked(ticker)
			return // completeLocked unlocks
		}
		ex := e.workout.Exercises[e.exerciseIndex]
		next := e.workout.Exercises[e.exerciseIndex+1]
		e.phase = PhaseRest
		e.planned = ex.RestDuration
		e.schedule, e.completionCueID = restCues(next, e.planned)
		e.phaseStart = e.cfg.now()
		snap := e.snapshotLocked()
		e.mu.Unlock()

		e.logger.Printf("Engine: resting %v before %q", ex.RestDuration, next.Name)
		e.snapshotEvent.Notify(snap)

	case PhaseRest:
		e.transitionArmed = false
		if e.exerciseIndex+1 >= len(e.workout.Exercises) {
			// The last exercise never enters a rest phase, so this
			// index should not be able to run past the end.
			e.logger.Printf("Engine: rest transition past last exercise, completing")
			e.completeLocked(ticker)
			return
		}
		e.exerciseIndex++
		e.phase = PhaseAwaitingReady
		e.planned = 0
		e.schedule = nil
		e.completionCueID = ""
		e.phaseStart = time.Time{}
		next := e.workout.Exercises[e.exerciseIndex]
		snap := e.snapshotLocked()
		e.mu.Unlock()

		ticker.Stop()
		e.logger.Printf("Engine: awaiting ready for exercise %d %q", snap.ExerciseIndex, next.Name)
		e.speaker.Enqueue(descriptionCue(next))
		e.snapshotEvent.Notify(snap)

	default:
		e.mu.Unlock()
	}
}

// completeLocked finishes the session and emits the history record exactly
// once. MUST be called with mu held; unlocks it.
func (e *Engine) completeLocked(ticker *time.Ticker) {
	e.phase = PhaseComplete
	now := e.cfg.now()
	record := SessionRecord{
		WorkoutID:          e.workout.ID,
		WorkoutName:        e.workout.Title,
		StartedAt:          e.sessionStart,
		CompletedAt:        now,
		ActualDuration:     now.Sub(e.sessionStart),
		PlannedDuration:    e.workout.TotalDuration(),
		ExercisesCompleted: e.completedExercises,
		TotalExercises:     len(e.workout.Exercises),
		Intensity:          e.intensity,
	}
	record.EstimatedCalories = e.estimator.Estimate(record.ActualDuration, record.Intensity)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	ticker.Stop()
	e.logger.Printf("Engine: workout complete, %d/%d exercises in %v",
		record.ExercisesCompleted, record.TotalExercises, record.ActualDuration.Round(time.Second))
	e.snapshotEvent.Notify(snap)
	e.completedEvent.Notify(record)
}

func (e *Engine) handlePause(ticker *time.Ticker) {
	e.mu.Lock()
	if e.paused || (e.phase != PhaseExercise && e.phase != PhaseRest) {
		e.mu.Unlock()
		return
	}
	e.paused = true
	e.pausedElapsed = e.cfg.now().Sub(e.phaseStart)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	ticker.Stop()
	e.speaker.Pause()
	e.logger.Printf("Engine: paused at %v elapsed", snap.Elapsed.Round(time.Second))
	e.snapshotEvent.Notify(snap)
}

func (e *Engine) handleResume(ticker *time.Ticker) {
	if pending := e.pendingTransition; pending != nil {
		e.pendingTransition = nil
		e.mu.Lock()
		e.paused = false
		e.mu.Unlock()
		e.speaker.Resume()
		e.handleTransition(*pending, ticker)
		return
	}

	e.mu.Lock()
	if !e.paused {
		e.mu.Unlock()
		return
	}
	remaining := e.planned - e.pausedElapsed
	if remaining <= 0 {
		e.mu.Unlock()
		e.logger.Printf("Engine: resume with no time remaining, ignored")
		return
	}
	e.phaseStart = e.cfg.now().Add(-e.pausedElapsed)
	e.paused = false
	snap := e.snapshotLocked()
	e.mu.Unlock()

	ticker.Reset(e.cfg.tickEvery)
	e.speaker.Resume()
	e.logger.Printf("Engine: resumed with %v remaining", remaining.Round(time.Second))
	e.snapshotEvent.Notify(snap)
}

// handleAdjust rescales the current phase. The elapsed portion is treated as
// fixed: only cues in the not-yet-elapsed window are regenerated, so a cue
// that already fired can never fire again with a new timing.
func (e *Engine) handleAdjust(easier bool) {
	factor := 1.2
	if easier {
		factor = 0.8
	}

	e.mu.Lock()
	if e.phase != PhaseExercise && e.phase != PhaseRest {
		e.mu.Unlock()
		return
	}
	if e.transitionArmed {
		// The completion cue already fired; this phase is over in all
		// but name and rescaling it would speak a second completion.
		e.mu.Unlock()
		e.logger.Printf("Engine: adjust ignored, phase already completing")
		return
	}

	elapsed := e.elapsedLocked()
	elapsedSecs := int(elapsed.Seconds())
	newPlanned := time.Duration(float64(e.planned)*factor).Round(time.Second)
	if newPlanned <= elapsed {
		newPlanned = time.Duration(elapsedSecs+1) * time.Second
	}

	ex := e.workout.Exercises[e.exerciseIndex]
	var cues []voice.Cue
	var completionID string
	if e.phase == PhaseExercise {
		isLast := e.exerciseIndex == len(e.workout.Exercises)-1
		cues, completionID = exerciseCues(ex, newPlanned, isLast)
	} else {
		cues, completionID = restCues(e.workout.Exercises[e.exerciseIndex+1], newPlanned)
	}

	remaining := cues[:0]
	for _, c := range cues {
		if c.Timing > elapsedSecs {
			remaining = append(remaining, c)
		}
	}
	e.schedule = remaining
	e.completionCueID = completionID
	old := e.planned
	e.planned = newPlanned
	if easier {
		e.intensity--
	} else {
		e.intensity++
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Printf("Engine: intensity adjusted (easier=%t), phase %v -> %v", easier, old, newPlanned)
	e.snapshotEvent.Notify(snap)
}

func (e *Engine) handleStop(ticker *time.Ticker) {
	ticker.Stop()
	stopTimer(e.readyTimer)
	stopTimer(e.transitionTimer)
	e.pendingTransition = nil

	e.mu.Lock()
	if e.phase == PhaseIdle {
		e.mu.Unlock()
		return
	}
	e.gen++ // invalidate any deferred command already in flight
	e.workout = nil
	e.phase = PhaseIdle
	e.paused = false
	e.exerciseIndex = 0
	e.phaseStart = time.Time{}
	e.pausedElapsed = 0
	e.planned = 0
	e.schedule = nil
	e.completionCueID = ""
	e.transitionArmed = false
	e.completedExercises = 0
	e.intensity = 0
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.speaker.Stop()
	e.logger.Printf("Engine: session stopped and reset")
	e.snapshotEvent.Notify(snap)
}
