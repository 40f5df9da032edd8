package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
workouts:
  - title: Morning Stretch
    planned_minutes: 5
    exercises:
      - name: Neck Rolls
        duration_seconds: 30
        rest_seconds: 10
        instructions:
          - Slow circles, both directions.
      - name: Cat Cow
        duration_seconds: 45
        muscle_groups: [lower back]
`

func TestParseWorkouts(t *testing.T) {
	workouts, err := parseWorkouts([]byte(sampleYAML))
	require.NoError(t, err)
	require.Len(t, workouts, 1)

	w := workouts[0]
	assert.Equal(t, "morning-stretch", w.ID, "missing id falls back to a title slug")
	assert.Equal(t, "Morning Stretch", w.Title)
	assert.Equal(t, 5, w.PlannedDurationMinutes)
	require.Len(t, w.Exercises, 2)

	assert.Equal(t, "neck-rolls", w.Exercises[0].ID)
	assert.Equal(t, 30*time.Second, w.Exercises[0].Duration)
	assert.Equal(t, 10*time.Second, w.Exercises[0].RestDuration)
	assert.Equal(t, []string{"Slow circles, both directions."}, w.Exercises[0].Instructions)

	assert.Equal(t, 45*time.Second, w.Exercises[1].Duration)
	assert.Zero(t, w.Exercises[1].RestDuration)
	assert.Equal(t, []string{"lower back"}, w.Exercises[1].MuscleGroups)
}

func TestParseWorkoutsDefaultsPlannedMinutes(t *testing.T) {
	doc := `
workouts:
  - title: Timed
    exercises:
      - name: Hold
        duration_seconds: 90
`
	workouts, err := parseWorkouts([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, workouts[0].PlannedDurationMinutes, "90s rounds up to 2 minutes")
}

func TestParseWorkoutsValidation(t *testing.T) {
	cases := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "missing title",
			doc:     "workouts:\n  - exercises:\n      - name: X\n        duration_seconds: 10\n",
			wantErr: "title is required",
		},
		{
			name:    "no exercises",
			doc:     "workouts:\n  - title: Empty\n",
			wantErr: "at least one exercise",
		},
		{
			name:    "zero duration",
			doc:     "workouts:\n  - title: W\n    exercises:\n      - name: X\n        duration_seconds: 0\n",
			wantErr: "duration_seconds must be positive",
		},
		{
			name:    "negative rest",
			doc:     "workouts:\n  - title: W\n    exercises:\n      - name: X\n        duration_seconds: 10\n        rest_seconds: -5\n",
			wantErr: "rest_seconds cannot be negative",
		},
		{
			name:    "bad yaml",
			doc:     "workouts: [",
			wantErr: "parsing workout file",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseWorkouts([]byte(tc.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestBuiltinWorkoutsAreValid(t *testing.T) {
	require.NotEmpty(t, BuiltinWorkouts)
	for _, w := range BuiltinWorkouts {
		assert.NotEmpty(t, w.ID)
		assert.NotEmpty(t, w.Title)
		require.NotEmpty(t, w.Exercises, "workout %q", w.Title)
		for _, ex := range w.Exercises {
			assert.NotEmpty(t, ex.ID, "workout %q", w.Title)
			assert.Greater(t, ex.Duration, time.Duration(0), "exercise %q", ex.Name)
			assert.GreaterOrEqual(t, ex.RestDuration, time.Duration(0), "exercise %q", ex.Name)
		}
		// The final exercise's rest never runs; the others need positive rest
		// so the session has a rest phase to speak through.
		last := w.Exercises[len(w.Exercises)-1]
		assert.Zero(t, last.RestDuration, "workout %q last exercise", w.Title)
	}
}
