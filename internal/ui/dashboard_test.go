package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "0:00", formatClock(0))
	assert.Equal(t, "0:05", formatClock(5*time.Second))
	assert.Equal(t, "1:30", formatClock(90*time.Second))
	assert.Equal(t, "0:00", formatClock(-3*time.Second))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45 sec", formatDuration(45*time.Second))
	assert.Equal(t, "8 min", formatDuration(8*time.Minute))
	assert.Equal(t, "1h", formatDuration(60*time.Minute))
	assert.Equal(t, "1h 15m", formatDuration(75*time.Minute))
}

func TestTimeGauge(t *testing.T) {
	empty := timeGauge(0, time.Minute)
	assert.Zero(t, strings.Count(empty, "█"))
	assert.Equal(t, 30, strings.Count(empty, "░"))

	half := timeGauge(30*time.Second, time.Minute)
	assert.Equal(t, 15, strings.Count(half, "█"))

	// Elapsed can overshoot planned around a transition; the bar pins full.
	over := timeGauge(2*time.Minute, time.Minute)
	assert.Equal(t, 30, strings.Count(over, "█"))
	assert.Zero(t, strings.Count(over, "░"))

	// Zero planned (idle) renders an empty bar instead of dividing by zero.
	idle := timeGauge(time.Second, 0)
	assert.Equal(t, 30, strings.Count(idle, "░"))
}
