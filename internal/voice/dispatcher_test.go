package voice

import (
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcue/fitcue/internal/audio"
)

func newTestDispatcher(t *testing.T, primary Synthesizer, player audio.Player) *Dispatcher {
	t.Helper()
	if player == nil {
		player = audio.NewMockPlayer(5 * time.Millisecond)
	}
	d := NewDispatcher(primary, NewToneSynthesizer(), player, NewAudioCache(1024*1024, time.Hour), log.New(os.Stderr, "", 0))
	d.cueGap = time.Millisecond
	t.Cleanup(d.Shutdown)
	return d
}

func waitIdle(t *testing.T, d *Dispatcher) {
	t.Helper()
	require.Eventually(t, func() bool { return !d.Busy() }, 5*time.Second, time.Millisecond)
}

func cue(id, text string, typ CueType) Cue {
	return Cue{ID: id, Text: text, Timing: 0, Type: typ}
}

func TestDispatcherSpeaksQueuedCuesInOrder(t *testing.T) {
	player := audio.NewMockPlayer(5 * time.Millisecond)
	d := newTestDispatcher(t, &scriptedSynth{}, player)

	var mu sync.Mutex
	var order []string
	unsub := d.SpeakingEvents().Listen(func(ev SpeakingEvent) {
		if ev.Speaking {
			mu.Lock()
			order = append(order, ev.Text)
			mu.Unlock()
		}
	})
	defer unsub()

	d.Enqueue(cue("1", "first", CueInstruction))
	d.Enqueue(cue("2", "second", CueCountdown))
	d.Enqueue(cue("3", "third", CueInstruction))
	waitIdle(t, d)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Equal(t, 1, player.MaxConcurrent(), "cues never overlap")
	assert.Equal(t, 3, player.PlayedCount())
}

func TestDispatcherSpeakingEventsPaired(t *testing.T) {
	d := newTestDispatcher(t, &scriptedSynth{}, nil)

	var mu sync.Mutex
	var events []SpeakingEvent
	unsub := d.SpeakingEvents().Listen(func(ev SpeakingEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	defer unsub()

	d.Enqueue(cue("1", "10 seconds left!", CueCountdown))
	d.Enqueue(cue("2", "Keep it up!", CueMotivation))
	waitIdle(t, d)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 4)
	for i := 0; i < len(events); i += 2 {
		assert.True(t, events[i].Speaking)
		assert.False(t, events[i+1].Speaking)
		assert.Equal(t, events[i].Text, events[i+1].Text)
		assert.Equal(t, events[i].Type, events[i+1].Type)
	}
}

func TestDispatcherDropsDuplicates(t *testing.T) {
	player := audio.NewMockPlayer(30 * time.Millisecond)
	d := newTestDispatcher(t, &scriptedSynth{}, player)

	d.Enqueue(cue("1", "go!", CueInstruction))
	d.Enqueue(cue("1", "go!", CueInstruction))          // same ID
	d.Enqueue(cue("2", "go!", CueInstruction))          // same text, new ID
	d.Enqueue(cue("3", "different", CueInstruction))    // genuinely new
	d.Enqueue(cue("4", "different", CueExerciseDescription)) // dup text again
	waitIdle(t, d)

	assert.Equal(t, 2, player.PlayedCount())
}

// The primary synthesizer failing repeatedly must not stall the queue: the
// cue falls back to tones and later cues still speak.
func TestDispatcherFallsBackAfterPrimaryFailure(t *testing.T) {
	inner := &scriptedSynth{errs: []error{ErrNetwork, ErrNetwork, ErrNetwork}}
	primary := newTestRetrier(inner)
	player := audio.NewMockPlayer(5 * time.Millisecond)
	d := newTestDispatcher(t, primary, player)

	d.Enqueue(cue("1", "flaky cue", CueInstruction))
	d.Enqueue(cue("2", "next cue", CueInstruction))
	waitIdle(t, d)

	assert.Equal(t, 3, inner.callCount(), "primary exhausted its retries")
	assert.Equal(t, 2, player.PlayedCount(), "both cues audible regardless")
}

func TestDispatcherCachesSynthesizedAudio(t *testing.T) {
	inner := &scriptedSynth{}
	d := newTestDispatcher(t, inner, nil)

	d.Enqueue(cue("1", "5 seconds left!", CueCountdown))
	waitIdle(t, d)
	d.Enqueue(cue("2", "5 seconds left!", CueCountdown))
	waitIdle(t, d)

	assert.Equal(t, 1, inner.callCount(), "second dispatch served from cache")
}

func TestDispatcherBusyWhileSpeaking(t *testing.T) {
	player := audio.NewMockPlayer(80 * time.Millisecond)
	d := newTestDispatcher(t, &scriptedSynth{}, player)

	assert.False(t, d.Busy())
	d.Enqueue(cue("1", "long cue", CueInstruction))
	require.Eventually(t, func() bool { return d.Busy() }, time.Second, time.Millisecond)
	waitIdle(t, d)
}

func TestDispatcherStopClearsQueueAndCurrentCue(t *testing.T) {
	player := audio.NewMockPlayer(5 * time.Second)
	d := newTestDispatcher(t, &scriptedSynth{}, player)

	for i := 0; i < 5; i++ {
		d.Enqueue(cue(fmt.Sprintf("%d", i), fmt.Sprintf("cue %d", i), CueInstruction))
	}
	require.Eventually(t, func() bool { return player.PlayedCount() == 1 }, time.Second, time.Millisecond)

	d.Stop()
	waitIdle(t, d)
	assert.Equal(t, 1, player.PlayedCount(), "queued cues discarded on stop")
}

func TestDispatcherPauseResumeDelegateToPlayer(t *testing.T) {
	player := audio.NewMockPlayer(150 * time.Millisecond)
	d := newTestDispatcher(t, &scriptedSynth{}, player)

	d.Enqueue(cue("1", "pausable cue", CueInstruction))
	require.Eventually(t, func() bool { return d.Busy() }, time.Second, time.Millisecond)

	d.Pause()
	time.Sleep(300 * time.Millisecond)
	assert.True(t, d.Busy(), "paused cue still current")

	d.Resume()
	waitIdle(t, d)
	assert.Equal(t, 1, player.PlayedCount())
}
