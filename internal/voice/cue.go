// Package voice turns scheduled trainer cues into speech. The dispatcher
// serializes cue playback (one cue speaks at a time), synthesizes text via a
// primary engine with retry and an always-available on-device fallback, and
// broadcasts speaking-state transitions for the music ducker.
package voice

// CueType classifies a spoken cue. The music ducker picks its duck depth per
// type, and cue texts are generated per type by the session engine.
type CueType int

const (
	CueInstruction CueType = iota
	CueCountdown
	CueMotivation
	CueRest
	CueTransition
	CueExerciseDescription
)

// String returns the human-readable name of the cue type.
func (t CueType) String() string {
	switch t {
	case CueInstruction:
		return "instruction"
	case CueCountdown:
		return "countdown"
	case CueMotivation:
		return "motivation"
	case CueRest:
		return "rest"
	case CueTransition:
		return "transition"
	case CueExerciseDescription:
		return "exercise_description"
	default:
		return "unknown"
	}
}

// Cue is an immutable spoken message. Timing is the offset in whole seconds
// from the start of the current workout phase, not a wall-clock time. Cues
// are created fresh per exercise or rest period and never mutated.
type Cue struct {
	ID     string
	Text   string
	Timing int
	Type   CueType
}

// SpeakingEvent is broadcast by the dispatcher on every speaking-state
// transition. It is the sole coupling channel between voice and music.
type SpeakingEvent struct {
	Speaking bool
	Type     CueType
	Text     string
}
