package coach

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fitcue/fitcue/internal/voice"
)

// Cue generation policy constants.
const (
	// Exercises shorter than this get no motivation cue; interrupting a
	// short move does more harm than good.
	motivationMinSeconds = 8
	// Above this, two motivation cues (1/3 and 2/3) instead of one midpoint.
	motivationSplitSeconds = 15
	// Rest periods at or below this get no countdown cues.
	restCountdownMinSeconds = 10
	// The transition cue describing the next exercise fires this many
	// seconds before rest ends, clamped to an offset of at least 1.
	transitionLeadSeconds = 2
)

// countdownLeads are the seconds-before-end marks for countdown cues.
var countdownLeads = [...]int{10, 5, 3}

var motivationLines = [...]string{
	"Keep it up, you're doing great!",
	"Strong form, keep pushing!",
	"You've got this!",
	"Stay with it, almost there!",
	"Great pace, keep moving!",
}

// descriptionCue introduces an exercise while awaiting the user's ready
// signal. Spoken immediately on session start; its text carries the first
// instruction line so the user hears what to do, not just the name.
func descriptionCue(ex Exercise) voice.Cue {
	text := fmt.Sprintf("Next up: %s.", ex.Name)
	if len(ex.Instructions) > 0 {
		text = fmt.Sprintf("%s %s", text, ex.Instructions[0])
	}
	if len(ex.MuscleGroups) > 0 {
		text = fmt.Sprintf("%s This works your %s.", text, strings.Join(ex.MuscleGroups, " and "))
	}
	return voice.Cue{
		ID:     uuid.NewString(),
		Text:   text,
		Timing: 0,
		Type:   voice.CueExerciseDescription,
	}
}

// beginCue is spoken when the user marks ready, just before the phase timer
// starts.
func beginCue(ex Exercise) voice.Cue {
	return voice.Cue{
		ID:     uuid.NewString(),
		Text:   fmt.Sprintf("Let's go: %s!", ex.Name),
		Timing: 0,
		Type:   voice.CueInstruction,
	}
}

// exerciseCues builds the scheduled cue batch for an exercise phase of the
// given effective duration. Returns the batch sorted by ascending timing and
// the ID of the completion cue (always present, always last).
//
// Policy: motivation only for exercises of at least 8s (midpoint up to 15s,
// thirds above); countdowns at 10/5/3 seconds before the end, each included
// only if it falls in the second half of the phase; exactly one completion
// cue at the full duration referencing the upcoming rest.
func exerciseCues(ex Exercise, planned time.Duration, isLast bool) ([]voice.Cue, string) {
	secs := int(planned / time.Second)
	if secs < 1 {
		secs = 1
	}

	taken := map[int]bool{secs: true}
	var cues []voice.Cue

	for _, lead := range countdownLeads {
		offset := secs - lead
		if offset <= secs/2 {
			continue
		}
		taken[offset] = true
		cues = append(cues, voice.Cue{
			ID:     uuid.NewString(),
			Text:   fmt.Sprintf("%d seconds left!", lead),
			Timing: offset,
			Type:   voice.CueCountdown,
		})
	}

	for i, offset := range motivationOffsets(secs) {
		// Countdown and completion slots win; nudge the motivation
		// cue earlier until it finds a free second, or drop it.
		for taken[offset] && offset > 0 {
			offset--
		}
		if offset <= 0 || taken[offset] {
			continue
		}
		taken[offset] = true
		line := motivationLines[(len(ex.Name)+i)%len(motivationLines)]
		cues = append(cues, voice.Cue{
			ID:     uuid.NewString(),
			Text:   line,
			Timing: offset,
			Type:   voice.CueMotivation,
		})
	}

	completion := voice.Cue{
		ID:     uuid.NewString(),
		Timing: secs,
		Type:   voice.CueInstruction,
	}
	if isLast {
		completion.Text = "Exercise complete. That was the last one, great work!"
	} else {
		completion.Text = fmt.Sprintf("Exercise complete! Rest for %d seconds.",
			int(ex.RestDuration/time.Second))
	}
	cues = append(cues, completion)

	sortCues(cues)
	return cues, completion.ID
}

// motivationOffsets returns the motivation cue offsets for an exercise of
// secs seconds under the generation policy.
func motivationOffsets(secs int) []int {
	switch {
	case secs < motivationMinSeconds:
		return nil
	case secs <= motivationSplitSeconds:
		return []int{secs / 2}
	default:
		return []int{secs / 3, 2 * secs / 3}
	}
}

// restCues builds the scheduled cue batch for the rest phase after ex, with
// next being the upcoming exercise. Returns the batch sorted ascending and
// the completion cue ID.
//
// Policy: countdowns at 10/5/3 before rest ends only when rest exceeds 10s;
// one transition cue describing the next exercise 2 seconds before rest ends
// (offset clamped to >= 1, dropped if it cannot precede the completion cue);
// exactly one rest-completion cue at the full rest duration.
func restCues(next Exercise, planned time.Duration) ([]voice.Cue, string) {
	secs := int(planned / time.Second)
	if secs < 1 {
		secs = 1
	}

	var cues []voice.Cue
	if secs > restCountdownMinSeconds {
		for _, lead := range countdownLeads {
			cues = append(cues, voice.Cue{
				ID:     uuid.NewString(),
				Text:   fmt.Sprintf("%d seconds of rest left.", lead),
				Timing: secs - lead,
				Type:   voice.CueRest,
			})
		}
	}

	transitionAt := secs - transitionLeadSeconds
	if transitionAt < 1 {
		transitionAt = 1
	}
	if transitionAt < secs {
		cues = append(cues, voice.Cue{
			ID:     uuid.NewString(),
			Text:   fmt.Sprintf("Get ready for %s.", next.Name),
			Timing: transitionAt,
			Type:   voice.CueTransition,
		})
	}

	completion := voice.Cue{
		ID:     uuid.NewString(),
		Text:   "Rest complete!",
		Timing: secs,
		Type:   voice.CueRest,
	}
	cues = append(cues, completion)

	sortCues(cues)
	return cues, completion.ID
}

// sortCues orders a batch by ascending timing. Batches are dispatched
// strictly in this order.
func sortCues(cues []voice.Cue) {
	sort.SliceStable(cues, func(i, j int) bool {
		return cues[i].Timing < cues[j].Timing
	})
}
