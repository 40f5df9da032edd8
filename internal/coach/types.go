// Package coach drives a guided workout session: a phase state machine that
// walks an ordered exercise list, schedules trainer voice cues per phase,
// and accounts for pause/resume and intensity adjustments.
package coach

import (
	"time"
)

// Exercise is a single move in a workout. It is supplied by the catalog and
// read-only for the engine: intensity adjustments rescale an engine-local
// copy of the duration, never these fields.
type Exercise struct {
	ID           string
	Name         string
	Instructions []string
	Duration     time.Duration // active time
	RestDuration time.Duration // rest after the exercise
	MuscleGroups []string
	Equipment    []string
}

// Workout is an ordered exercise list, read-only input to Engine.Start.
type Workout struct {
	ID                     string
	Title                  string
	Exercises              []Exercise
	PlannedDurationMinutes int
}

// TotalDuration sums active and rest time. The final exercise's rest is
// excluded: the session completes straight from its last active second.
func (w *Workout) TotalDuration() time.Duration {
	var total time.Duration
	for i, ex := range w.Exercises {
		total += ex.Duration
		if i < len(w.Exercises)-1 {
			total += ex.RestDuration
		}
	}
	return total
}

// Phase is the engine's position in an exercise's lifecycle.
type Phase int

const (
	PhaseIdle          Phase = iota // no session
	PhaseAwaitingReady              // preparation: description spoken, waiting for the user
	PhaseExercise                   // active exercise timer running
	PhaseRest                       // rest timer running
	PhaseComplete                   // session finished, record emitted
)

// String returns the human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingReady:
		return "preparation"
	case PhaseExercise:
		return "exercise"
	case PhaseRest:
		return "rest"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Snapshot is the engine's externally visible state, broadcast on every
// transition and tick for the dashboard.
type Snapshot struct {
	Phase              Phase
	Paused             bool
	WorkoutTitle       string
	ExerciseIndex      int
	ExerciseName       string
	NextExerciseName   string
	Elapsed            time.Duration // within the current phase
	Remaining          time.Duration // within the current phase
	Planned            time.Duration // effective planned phase duration
	CompletedExercises int
	TotalExercises     int
	Intensity          int
}

// SessionRecord is emitted exactly once when a session reaches
// PhaseComplete. Consumers (the history store) treat it as fire-and-forget.
type SessionRecord struct {
	WorkoutID          string
	WorkoutName        string
	StartedAt          time.Time
	CompletedAt        time.Time
	ActualDuration     time.Duration // wall clock, includes pauses and rests
	PlannedDuration    time.Duration
	ExercisesCompleted int
	TotalExercises     int
	Intensity          int // net adjustment: negative = easier, positive = harder
	EstimatedCalories  float64
}
